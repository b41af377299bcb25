package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baguette-io/baguette-utils/pkg/rest"
)

type pageServer struct {
	mu      sync.Mutex
	offsets []int
	pages   map[int]any
	status  map[int]int
}

func (p *pageServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	offset, _ := strconv.Atoi(request.URL.Query().Get("offset"))

	p.mu.Lock()
	p.offsets = append(p.offsets, offset)
	p.mu.Unlock()

	if status, ok := p.status[offset]; ok {
		writer.WriteHeader(status)

		return
	}

	_ = json.NewEncoder(writer).Encode(p.pages[offset])
}

func (p *pageServer) seen() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]int(nil), p.offsets...)
}

func page(next any, items ...any) map[string]any {
	return map[string]any{
		"data": items,
		"meta": map[string]any{"next": next},
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_All(t *testing.T) {
	t.Parallel()
	t.Run("merges pages in order", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{pages: map[int]any{
			0:  page("/items?offset=10", "a", "b"),
			10: page("/items?offset=20", "c"),
			20: page(nil, "d"),
		}}

		server := httptest.NewServer(pages)
		defer server.Close()

		client := newTestClient(t, server.URL, func(c *rest.Config) { c.Limit = 10 })
		envelope := client.All(context.Background(), "/items")

		require.True(t, envelope.OK(), "%v", envelope.Err)
		assert.Equal(t, map[string]any{"data": []any{"a", "b", "c", "d"}}, envelope.Result)
		assert.Equal(t, []any{"a", "b", "c", "d"}, envelope.Data())
		assert.Equal(t, []int{0, 10, 20}, pages.seen())
	})

	t.Run("keeps caller query and sends limit", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "owner", request.URL.Query().Get("expand"))
			assert.Equal(t, "0", request.URL.Query().Get("offset"))
			assert.Equal(t, "100", request.URL.Query().Get("limit"))
			_ = json.NewEncoder(writer).Encode(page(false, 1))
		}))
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items", rest.WithParam("expand", "owner"))

		require.True(t, envelope.OK())
		assert.Equal(t, map[string]any{"data": []any{float64(1)}}, envelope.Result)
	})

	t.Run("first page without meta is a single page", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{pages: map[int]any{0: map[string]any{"data": []any{"x"}, "count": 1}}}

		server := httptest.NewServer(pages)
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items")

		require.True(t, envelope.OK())
		assert.Equal(t, map[string]any{"data": []any{"x"}, "count": float64(1)}, envelope.Result)
		assert.Equal(t, []int{0}, pages.seen())
	})

	t.Run("falsy next values stop", func(t *testing.T) {
		t.Parallel()

		for _, next := range []any{nil, false, 0, "", []any{}, map[string]any{}} {
			pages := &pageServer{pages: map[int]any{0: page(next, "only")}}

			server := httptest.NewServer(pages)

			envelope := newTestClient(t, server.URL).All(context.Background(), "items")
			server.Close()

			require.True(t, envelope.OK())
			assert.Equal(t, []any{"only"}, envelope.Data(), "next=%v", next)
			assert.Equal(t, []int{0}, pages.seen(), "next=%v", next)
		}
	})

	t.Run("failing page aborts the walk", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{
			pages: map[int]any{
				0:   page(true, "a"),
				200: page(nil, "c"),
			},
			status: map[int]int{100: http.StatusForbidden},
		}

		server := httptest.NewServer(pages)
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items")

		assert.Equal(t, rest.Status(http.StatusForbidden), envelope.Status)
		assert.Equal(t, rest.KindHTTP, envelope.Kind)
		assert.Equal(t, map[string]any{}, envelope.Result)
		assert.Equal(t, []int{0, 100}, pages.seen())
	})

	t.Run("failing first page is surfaced", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{status: map[int]int{0: http.StatusUnauthorized}}

		server := httptest.NewServer(pages)
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items")

		assert.Equal(t, rest.Status(http.StatusUnauthorized), envelope.Status)
		assert.Equal(t, map[string]any{}, envelope.Result)
	})

	t.Run("page without data is malformed", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{pages: map[int]any{
			0:   page(true, "a"),
			100: map[string]any{"meta": map[string]any{"next": nil}},
		}}

		server := httptest.NewServer(pages)
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items")

		assert.Equal(t, rest.StatusDecodeFailed, envelope.Status)
		assert.Equal(t, rest.KindDecode, envelope.Kind)
		require.ErrorIs(t, envelope.Err, rest.ErrMalformedPage)
	})

	t.Run("page that is not an object is malformed", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{pages: map[int]any{0: []any{"a", "b"}}}

		server := httptest.NewServer(pages)
		defer server.Close()

		envelope := newTestClient(t, server.URL).All(context.Background(), "items")

		assert.Equal(t, rest.StatusDecodeFailed, envelope.Status)
		require.ErrorIs(t, envelope.Err, rest.ErrMalformedPage)
	})

	t.Run("stops at max pages", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_ = json.NewEncoder(writer).Encode(page("more", "x"))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL, func(c *rest.Config) { c.MaxPages = 3 })
		envelope := client.All(context.Background(), "endless")

		assert.Equal(t, rest.StatusUnknown, envelope.Status)
		assert.Equal(t, rest.KindPagination, envelope.Kind)
		require.ErrorIs(t, envelope.Err, rest.ErrTooManyPages)
	})

	t.Run("pages are served from cache", func(t *testing.T) {
		t.Parallel()

		pages := &pageServer{pages: map[int]any{
			0:   page(1, "a"),
			100: page(nil, "b"),
		}}

		server := httptest.NewServer(pages)
		defer server.Close()

		client := newTestClient(t, server.URL, func(c *rest.Config) { c.Cache = rest.NewMemoryCache(0) })

		first := client.All(context.Background(), "items")
		second := client.All(context.Background(), "items")

		assert.Equal(t, first.Result, second.Result)
		assert.Equal(t, []any{"a", "b"}, second.Data())
		assert.Equal(t, []int{0, 100}, pages.seen())
	})
}
