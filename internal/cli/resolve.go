package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/membank-mcp/membank/internal/identity"
)

var resolveVerbose bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [dir]",
	Short: "Detect which project a directory belongs to",
	Long: `Runs the same project detection the server uses and prints the result.
Useful for checking what bank_resolve_project would answer for a
directory without starting a session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		var logger *slog.Logger
		if resolveVerbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		resolver := identity.NewResolver(identity.ResolverConfig{Logger: logger})
		res := resolver.Resolve(cmd.Context(), dir)

		fmt.Printf("Project:    %s\n", res.Name)
		fmt.Printf("Method:     %s\n", res.Method)
		fmt.Printf("Confidence: %d%%\n", res.Confidence)
		for _, ev := range res.Evidence {
			fmt.Printf("Evidence:   %s\n", ev)
		}
		if resolveVerbose && len(res.Signals) > 0 {
			fmt.Println("\nSignals:")
			for _, s := range res.Signals {
				fmt.Printf("  %-10s %-24s %3d%%  %s\n", s.Source, s.Name, s.Confidence, strings.Join(s.Evidence, "; "))
			}
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVarP(&resolveVerbose, "verbose", "v", false, "show every detection signal")
}
