package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subdash/assistant-gateway/internal/fallback"
)

func TestParseSubscriptions(t *testing.T) {
	t.Run("yaml mapping", func(t *testing.T) {
		subs, err := ParseSubscriptions([]byte(`
subscriptions:
  - id: 7
    name: Netflix
    price: 15.49
    currency: USD
  - name: Gym
    price: 30
    currency: EUR
`))
		require.NoError(t, err)
		assert.Equal(t, []fallback.Subscription{
			{ID: "7", Name: "Netflix", Price: 15.49, Currency: "USD"},
			{ID: "2", Name: "Gym", Price: 30, Currency: "EUR"},
		}, subs)
	})

	t.Run("json list", func(t *testing.T) {
		subs, err := ParseSubscriptions([]byte(`[{"id":"a","name":"Spotify","price":9.99,"currency":"USD"}]`))
		require.NoError(t, err)
		assert.Equal(t, []fallback.Subscription{{ID: "a", Name: "Spotify", Price: 9.99, Currency: "USD"}}, subs)
	})

	t.Run("empty document", func(t *testing.T) {
		subs, err := ParseSubscriptions(nil)
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("scalar document", func(t *testing.T) {
		_, err := ParseSubscriptions([]byte(`hello`))
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseSubscriptions([]byte("subscriptions: [\n"))
		assert.Error(t, err)
	})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {id: x, name: Cloud, price: 2, currency: USD}\n"), 0o600))

	store := FileStore{Path: path}
	subs, err := store.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Cloud", subs[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("- {id: y, name: Music, price: 3, currency: USD}\n"), 0o600))
	subs, err = store.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Music", subs[0].Name)

	_, err = FileStore{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Subscriptions(context.Background())
	assert.Error(t, err)
}
