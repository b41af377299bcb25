package rest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baguette-io/baguette-utils/pkg/rest"
)

func TestParseMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    rest.Method
		wantErr bool
	}{
		{input: "get", want: rest.MethodGet},
		{input: " Post ", want: rest.MethodPost},
		{input: "PUT", want: rest.MethodPut},
		{input: "patch", want: rest.MethodPatch},
		{input: "delete", want: rest.MethodDelete},
		{input: "head", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			method, err := rest.ParseMethod(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, rest.ErrInvalidMethod)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, method)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"example.com":             "https://example.com",
		" example.com/ ":          "https://example.com",
		"http://example.com":      "http://example.com",
		"https://example.com/v1/": "https://example.com/v1",
		"Https://example.com":     "Https://example.com",
		"httpbin.org":             "https://httpbin.org",
		"":                        "",
	}

	for raw, want := range tests {
		assert.Equal(t, want, rest.NormalizeBaseURL(raw), raw)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := rest.DefaultConfig()

	assert.Equal(t, 5, config.Retries)
	assert.InDelta(t, 0.1, config.Backoff, 1e-9)
	assert.Equal(t, []int{500, 502, 503, 504}, config.RetryStatuses)
	assert.Equal(t, 100, config.Limit)
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, config.Headers)
}
