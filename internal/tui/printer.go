package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/subdash/assistant-gateway/internal/assistant"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/fallback"
)

// Printer writes assistant output. Replies and cards go to out; status
// lines and notifications go to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	styled bool
	md     *glamour.TermRenderer
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewPrinter styles output only when out is a terminal.
func NewPrinter(out, errOut io.Writer) *Printer {
	p := &Printer{out: out, errOut: errOut, styled: IsTerminal(out)}
	if p.styled {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrap),
		)
		if err != nil {
			log.Debug().Err(err).Msg("tui: markdown renderer unavailable, printing raw")
		} else {
			p.md = md
		}
	}
	return p
}

// Markdown renders text for the terminal, or returns it unchanged.
func (p *Printer) Markdown(text string) string {
	if p.md == nil {
		return text
	}
	out, err := p.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Reply prints an assistant message.
func (p *Printer) Reply(msg domain.ChatMessage) {
	_, _ = fmt.Fprintln(p.out, p.Markdown(msg.Content))
}

// Notify implements assistant.Notifier.
func (p *Printer) Notify(title, description string) {
	if p.styled {
		_, _ = fmt.Fprintf(p.errOut, "%s %s\n", errorStyle.Render(title+":"), description)
		return
	}
	_, _ = fmt.Fprintf(p.errOut, "%s: %s\n", title, description)
}

func (p *Printer) tagged(color, tag, msg string) {
	if p.styled {
		_, _ = fmt.Fprintf(p.errOut, "%s[%s]%s %s\n", color, tag, ColorReset, msg)
		return
	}
	_, _ = fmt.Fprintf(p.errOut, "[%s] %s\n", tag, msg)
}

// Info prints an informational status line.
func (p *Printer) Info(msg string) { p.tagged(ColorCyan, "INFO", msg) }

// Success prints a success status line.
func (p *Printer) Success(msg string) { p.tagged(ColorGreen, "OK", msg) }

// Warn prints a warning status line.
func (p *Printer) Warn(msg string) { p.tagged(ColorYellow, "WARN", msg) }

// stateLines describe the non-terminal suggestion states.
var stateLines = map[assistant.SuggestionState]string{
	assistant.StateOptimistic: "Quick ideas while the assistant thinks:",
	assistant.StateLoading:    "Asking the assistant for suggestions...",
}

// Observe implements assistant.Observer: it prints the optimistic cards,
// a loading line, and the final cards.
func (p *Printer) Observe(view assistant.SuggestionView) {
	switch view.State {
	case assistant.StateOptimistic:
		p.Info(stateLines[view.State])
		p.Cards(view.Suggestions)
	case assistant.StateLoading:
		p.Info(stateLines[view.State])
	case assistant.StateSuccess:
		p.Success(fmt.Sprintf("%d suggestions from the assistant", len(view.Suggestions)))
		if view.Summary != "" {
			_, _ = fmt.Fprintln(p.out, p.Markdown(view.Summary))
		}
		p.Cards(view.Suggestions)
	case assistant.StateEmpty:
		p.Warn("The assistant had nothing to add; keeping the quick ideas.")
	case assistant.StateError:
		p.Warn("Suggestions unavailable; keeping the quick ideas.")
	}
}

// Cards prints suggestions as cards.
func (p *Printer) Cards(sugs []domain.Suggestion) {
	for i, s := range sugs {
		_, _ = fmt.Fprintln(p.out, p.card(i+1, s))
	}
}

func (p *Printer) card(n int, s domain.Suggestion) string {
	head := fmt.Sprintf("%d. %s", n, s.Title)
	badge := "[" + s.Type + "]"
	if s.Confidence != "" {
		badge += " " + string(s.Confidence)
	}

	var meta []string
	if impact := impactLine(s.ImpactEstimate); impact != "" {
		meta = append(meta, impact)
	}
	for _, a := range s.Actions {
		meta = append(meta, "-> "+a.Label)
	}

	if !p.styled {
		lines := []string{head + " " + badge, "   " + s.Description}
		for _, m := range meta {
			lines = append(lines, "   "+m)
		}
		return strings.Join(lines, "\n")
	}

	body := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render(head), " ", badgeStyle.Render(badge)),
		s.Description,
	}
	for _, m := range meta {
		body = append(body, mutedStyle.Render(m))
	}
	return cardStyle.Render(strings.Join(body, "\n"))
}

func impactLine(e *domain.ImpactEstimate) string {
	if e.Empty() {
		return ""
	}
	var parts []string
	if e.Monthly != nil {
		parts = append(parts, fallback.FormatAmount(*e.Monthly, e.Currency)+"/mo")
	}
	if e.Yearly != nil {
		parts = append(parts, fallback.FormatAmount(*e.Yearly, e.Currency)+"/yr")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Saves ~" + strings.Join(parts, ", ")
}

// Header prints a section title.
func (p *Printer) Header(title string) {
	if p.styled {
		_, _ = fmt.Fprintln(p.out, headerStyle.Render(title))
		return
	}
	_, _ = fmt.Fprintln(p.out, title)
}
