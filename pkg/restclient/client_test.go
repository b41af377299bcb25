package restclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baguette-io/baguette-utils/pkg/rest"
	"github.com/baguette-io/baguette-utils/pkg/restclient"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := restclient.New(&rest.Config{BaseURL: "https://api.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", client.BaseURL())
	})

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := restclient.New(nil)
		require.ErrorIs(t, err, rest.ErrConfigRequired)
	})

	t.Run("requires base URL", func(t *testing.T) {
		t.Parallel()

		_, err := restclient.New(&rest.Config{})
		require.ErrorIs(t, err, rest.ErrBaseURLRequired)
	})

	t.Run("rejects negative retries", func(t *testing.T) {
		t.Parallel()

		_, err := restclient.New(&rest.Config{BaseURL: "api.example.com", Retries: -3})
		require.ErrorIs(t, err, rest.ErrInvalidConfig)
	})
}

func TestNewWithBaseURL(t *testing.T) {
	t.Parallel()

	client, err := restclient.NewWithBaseURL("api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", client.BaseURL())
}

func TestNewWithCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(writer).Encode(map[string]string{"path": request.URL.Path})
	}))
	defer server.Close()

	client, err := restclient.NewWithCache(&rest.Config{BaseURL: server.URL}, rest.DefaultCacheConfig())
	require.NoError(t, err)

	ctx := context.Background()

	first := client.Get(ctx, "/bread")
	second := client.Get(ctx, "/bread")

	require.True(t, first.OK())
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, int32(1), hits.Load())

	_, err = restclient.NewWithCache(&rest.Config{BaseURL: server.URL}, &rest.CacheConfig{Type: "bogus"})
	require.ErrorIs(t, err, rest.ErrUnsupportedCacheType)

	_, err = restclient.NewWithCache(nil, nil)
	require.ErrorIs(t, err, rest.ErrConfigRequired)
}
