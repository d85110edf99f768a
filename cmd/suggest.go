package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/subdash/assistant-gateway/internal/tui"
)

var suggestFlags clientFlags

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate savings suggestions",
	Long: `Print quick local suggestions immediately, then replace them with the
assistant's suggestions once the gateway answers. If the gateway fails or has
nothing to add, the quick suggestions are kept.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := tui.NewPrinter(os.Stdout, os.Stderr)
		session, err := suggestFlags.newSession(p, p.Observe)
		if err != nil {
			return err
		}
		// Failures are already reported through the notifier and the
		// fallback cards stay on screen.
		_, _ = session.GenerateSuggestions(cmd.Context())
		return nil
	},
}

func init() {
	suggestFlags.register(suggestCmd)
}
