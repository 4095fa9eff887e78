package identity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyName reports input that normalizes to nothing usable.
// Callers treat it as a validation failure, not an internal fault.
var ErrEmptyName = errors.New("name is empty after normalization")

// Normalize canonicalizes a raw name into a stable project slug:
// lowercase, every run of characters outside [a-z0-9] collapses into a
// single hyphen (underscores included), no leading, trailing, or
// repeated hyphens. Normalize is idempotent: feeding its output back
// in returns the same slug.
func Normalize(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "", fmt.Errorf("normalizing %q: %w", raw, ErrEmptyName)
	}
	return slug, nil
}

// mustNormalize is Normalize for inputs the caller already knows are
// usable (generated fallbacks). It returns the raw input's best effort
// instead of failing.
func mustNormalize(raw, fallback string) string {
	slug, err := Normalize(raw)
	if err != nil {
		return fallback
	}
	return slug
}
