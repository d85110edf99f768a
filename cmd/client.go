package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subdash/assistant-gateway/internal/assistant"
	"github.com/subdash/assistant-gateway/internal/tui"
)

// clientFlags are shared by the commands that talk to a running gateway.
type clientFlags struct {
	gatewayURL    string
	subscriptions string
	locale        string
	timezone      string
	currency      string
	timeout       time.Duration
}

func defaultGatewayURL() string {
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		return v
	}
	port := os.Getenv("GATEWAY_PORT")
	if port == "" {
		port = "8787"
	}
	return "http://localhost:" + port
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.gatewayURL, "gateway", defaultGatewayURL(), "gateway base URL")
	cmd.Flags().StringVarP(&f.subscriptions, "subscriptions", "s", os.Getenv("SUBSCRIPTIONS_FILE"), "YAML or JSON file with subscriptions")
	cmd.Flags().StringVar(&f.locale, "locale", "", "user locale, e.g. en-US")
	cmd.Flags().StringVar(&f.timezone, "timezone", localTimezone(), "user IANA timezone")
	cmd.Flags().StringVar(&f.currency, "currency", "", "default currency code")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 60*time.Second, "HTTP timeout per request")
}

func localTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	if name := time.Local.String(); name != "Local" {
		return name
	}
	return ""
}

func (f *clientFlags) source() assistant.SubscriptionSource {
	if f.subscriptions == "" {
		return nil
	}
	return assistant.FileStore{Path: f.subscriptions}
}

// newSession builds a Session that prints through p.
func (f *clientFlags) newSession(p *tui.Printer, observer assistant.Observer) (*assistant.Session, error) {
	if f.gatewayURL == "" {
		return nil, fmt.Errorf("--gateway is required")
	}
	client := assistant.NewClient(f.gatewayURL, &http.Client{Timeout: f.timeout})
	return assistant.NewSession(client, f.source(), assistant.SessionOptions{
		User: assistant.UserContext{
			Locale:          f.locale,
			Timezone:        f.timezone,
			DefaultCurrency: f.currency,
		},
		Notifier: p,
		Observer: observer,
	}), nil
}
