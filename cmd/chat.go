package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subdash/assistant-gateway/internal/assistant"
	"github.com/subdash/assistant-gateway/internal/tui"
)

var (
	chatFlags   clientFlags
	chatMessage string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long: `Send one message with --message, or start an interactive session.

Interactive commands:
  /suggest  - generate suggestions
  /run N    - ask the assistant about suggestion N
  /quit     - leave`,
	RunE: runChat,
}

func init() {
	chatFlags.register(chatCmd)
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "send a single message and exit")
}

func runChat(cmd *cobra.Command, _ []string) error {
	p := tui.NewPrinter(os.Stdout, os.Stderr)

	if chatMessage != "" {
		session, err := chatFlags.newSession(p, nil)
		if err != nil {
			return err
		}
		reply, err := session.Send(cmd.Context(), chatMessage)
		p.Reply(reply)
		return err
	}

	session, err := chatFlags.newSession(p, p.Observe)
	if err != nil {
		return err
	}
	return chatLoop(cmd.Context(), session, p, os.Stdin, tui.IsTerminal(os.Stdout))
}

// chatLoop reads one prompt per line until EOF or /quit.
func chatLoop(ctx context.Context, session *assistant.Session, p *tui.Printer, in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if interactive {
		p.Header("Subscription assistant")
		p.Info("Type a question, /suggest for ideas, /quit to leave.")
	}

	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/suggest":
			_, _ = session.GenerateSuggestions(ctx)
		case strings.HasPrefix(line, "/run"):
			runNumbered(ctx, session, p, strings.TrimSpace(strings.TrimPrefix(line, "/run")))
		default:
			reply, err := session.Send(ctx, line)
			if errors.Is(err, assistant.ErrBusy) || errors.Is(err, assistant.ErrEmptyMessage) {
				continue
			}
			p.Reply(reply)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func runNumbered(ctx context.Context, session *assistant.Session, p *tui.Printer, arg string) {
	cards := session.Suggestions().Suggestions
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(cards) {
		p.Warn(fmt.Sprintf("pick a suggestion between 1 and %d", len(cards)))
		return
	}
	reply, err := session.RunSuggestion(ctx, cards[n-1])
	if errors.Is(err, assistant.ErrBusy) {
		return
	}
	p.Reply(reply)
}
