// Command assistant-gateway serves the subscription assistant gateway and
// talks to it from the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "assistant-gateway",
	Short: "Subscription assistant gateway",
	Long: `Server-side mediator between the subscription dashboard and a hosted
generative model, plus a terminal client for it.

Available subcommands:
  serve   - Run the HTTP gateway
  chat    - Chat with the assistant through a running gateway
  suggest - Generate savings suggestions through a running gateway`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		loadEnvFiles()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, chatCmd, suggestCmd)
}

// loadEnvFiles loads .env from the working directory, then from the user's
// config directory. Variables already set win.
func loadEnvFiles() {
	candidates := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "assistant-gateway", ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
