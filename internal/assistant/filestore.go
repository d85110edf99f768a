package assistant

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/subdash/assistant-gateway/internal/fallback"
)

// FileStore reads subscriptions from a YAML or JSON file on every call, so
// edits are picked up without a restart. The document is either a list of
// subscriptions or a mapping with a "subscriptions" list.
type FileStore struct {
	Path string
}

type subscriptionsDoc struct {
	Subscriptions []fallback.Subscription `yaml:"subscriptions"`
}

// Subscriptions implements SubscriptionSource.
func (f FileStore) Subscriptions(_ context.Context) ([]fallback.Subscription, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read subscriptions: %w", err)
	}
	return ParseSubscriptions(data)
}

// ParseSubscriptions decodes a subscriptions document. JSON parses as YAML.
// Entries without an id get their 1-based position.
func ParseSubscriptions(data []byte) ([]fallback.Subscription, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse subscriptions: %w", err)
	}
	if len(root.Content) == 0 {
		return []fallback.Subscription{}, nil
	}

	var subs []fallback.Subscription
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&subs); err != nil {
			return nil, fmt.Errorf("decode subscriptions: %w", err)
		}
	case yaml.MappingNode:
		var wrapped subscriptionsDoc
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode subscriptions: %w", err)
		}
		subs = wrapped.Subscriptions
	default:
		return nil, fmt.Errorf("parse subscriptions: expected a list or a mapping")
	}

	for i := range subs {
		if subs[i].ID == "" {
			subs[i].ID = strconv.Itoa(i + 1)
		}
	}
	if subs == nil {
		subs = []fallback.Subscription{}
	}
	return subs, nil
}
