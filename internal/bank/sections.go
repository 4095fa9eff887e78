package bank

import "strings"

// section is one heading-delimited chunk of a markdown document. The
// preamble (anything before the first heading) is a section with an
// empty key.
type section struct {
	key     string // normalized heading text; "" for the preamble
	heading string // raw heading line; "" for the preamble
	body    string // text below the heading, outer blank lines trimmed
}

// isHeadingLine reports whether line is a markdown ATX heading.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return false
	}
	return level == len(trimmed) || trimmed[level] == ' ' || trimmed[level] == '\t'
}

// sectionKey normalizes a heading line for name matching: hashes and
// decoration stripped, lowercased, inner whitespace collapsed.
func sectionKey(headingLine string) string {
	s := strings.TrimSpace(headingLine)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimRight(s, "#")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// splitSections parses text into its preamble and named sections, in
// document order. Every line of input lands in exactly one section.
func splitSections(text string) []section {
	var sections []section
	current := section{}
	var body []string

	flush := func() {
		current.body = strings.Trim(strings.Join(body, "\n"), "\n")
		if current.heading != "" || current.body != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if isHeadingLine(line) {
			flush()
			current = section{key: sectionKey(line), heading: strings.TrimSpace(line)}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// renderSections serializes sections back to markdown with uniform
// spacing. Rendering then re-parsing yields the same sections, which
// is what keeps repeated merges stable.
func renderSections(sections []section) string {
	var parts []string
	for _, s := range sections {
		switch {
		case s.heading == "":
			if s.body != "" {
				parts = append(parts, s.body)
			}
		case s.body == "":
			parts = append(parts, s.heading)
		default:
			parts = append(parts, s.heading+"\n\n"+s.body)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
