package jsonenc_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baguette-io/baguette-utils/pkg/jsonenc"
)

var testID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func TestFormatTime(t *testing.T) {
	t.Parallel()

	paris := time.FixedZone("CET", 3600)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "whole seconds omit the fraction",
			in:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			want: "2024-01-02T03:04:05+00:00",
		},
		{
			name: "microseconds",
			in:   time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC),
			want: "2024-01-02T03:04:05.123456+00:00",
		},
		{
			name: "sub-microsecond precision is dropped",
			in:   time.Date(2024, 1, 2, 3, 4, 5, 999, time.UTC),
			want: "2024-01-02T03:04:05+00:00",
		},
		{
			name: "offset is kept",
			in:   time.Date(2024, 7, 14, 22, 0, 0, 500000000, paris),
			want: "2024-07-14T22:00:00.500000+01:00",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, jsonenc.FormatTime(tt.in))
		})
	}
}

func TestFormatUUID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6ba7b8109dad11d180b400c04fd430c8", jsonenc.FormatUUID(testID))
	assert.Len(t, jsonenc.FormatUUID(uuid.New()), 32)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestMarshal(t *testing.T) {
	t.Parallel()

	created := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)

	type owner struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}

	type Audit struct {
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt *time.Time `json:"updated_at,omitempty"`
	}

	type item struct {
		Audit

		ID       uuid.UUID      `json:"id"`
		Owner    *owner         `json:"owner"`
		Tags     []string       `json:"tags,omitempty"`
		Extra    map[string]any `json:"extra"`
		Secret   string         `json:"-"`
		internal string
	}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "plain values",
			in:   map[string]any{"a": 1, "b": "two", "c": []int{3}},
			want: `{"a":1,"b":"two","c":[3]}`,
		},
		{
			name: "time value",
			in:   created,
			want: `"2023-05-06T07:08:09+00:00"`,
		},
		{
			name: "time pointer",
			in:   &created,
			want: `"2023-05-06T07:08:09+00:00"`,
		},
		{
			name: "uuid value",
			in:   testID,
			want: `"6ba7b8109dad11d180b400c04fd430c8"`,
		},
		{
			name: "uuid map key",
			in:   map[uuid.UUID]int{testID: 1},
			want: `{"6ba7b8109dad11d180b400c04fd430c8":1}`,
		},
		{
			name: "nested struct",
			in: item{
				Audit:    Audit{CreatedAt: created},
				ID:       testID,
				Owner:    &owner{ID: testID, Name: "bob"},
				Extra:    map[string]any{"when": []any{created}},
				Secret:   "hidden",
				internal: "hidden",
			},
			want: `{
				"created_at":"2023-05-06T07:08:09+00:00",
				"id":"6ba7b8109dad11d180b400c04fd430c8",
				"owner":{"id":"6ba7b8109dad11d180b400c04fd430c8","name":"bob"},
				"extra":{"when":["2023-05-06T07:08:09+00:00"]}
			}`,
		},
		{
			name: "nil",
			in:   nil,
			want: `null`,
		},
		{
			name: "raw message passes through",
			in:   map[string]any{"raw": json.RawMessage(`{"x":1}`)},
			want: `{"raw":{"x":1}}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := jsonenc.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

type base struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

type Article struct {
	base

	Title  string     `json:"title"`
	Views  int64      `json:"views,string"`
	Author *uuid.UUID `json:"author"`
}

func TestMarshal_StandardSemantics(t *testing.T) {
	t.Parallel()

	article := Article{
		base:  base{ID: "a1", Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		Title: "t",
		Views: 5,
	}

	data, err := jsonenc.Marshal(article)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"a1","created":"2024-01-02T03:04:05+00:00","title":"t","views":"5","author":null}`,
		string(data))

	article.Author = &testID

	data, err = jsonenc.Marshal(&article)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"author":"6ba7b8109dad11d180b400c04fd430c8"`)

	// Values without a special case match encoding/json byte for byte.
	plain := struct {
		Name  string            `json:"name,omitempty"`
		Count uint8             `json:"count,string"`
		HTML  string            `json:"html"`
		Bytes []byte            `json:"bytes"`
		Attrs map[string]string `json:"attrs"`
		Skip  func()            `json:"-"`
	}{Count: 3, HTML: "<b>", Bytes: []byte("hi"), Attrs: map[string]string{"b": "2", "a": "1"}}

	want, err := json.Marshal(plain)
	require.NoError(t, err)

	got, err := jsonenc.Marshal(plain)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMarshal_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
	}{
		{name: "channel", in: make(chan int)},
		{name: "function", in: map[string]any{"fn": func() {}}},
		{name: "complex", in: []any{complex(1, 2)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := jsonenc.Marshal(tt.in)
			require.Error(t, err)

			unsupported := &json.UnsupportedTypeError{}
			assert.ErrorAs(t, err, &unsupported)
		})
	}
}

func TestMarshal_Cycle(t *testing.T) {
	t.Parallel()

	cycle := map[string]any{}
	cycle["self"] = cycle

	_, err := jsonenc.Marshal(cycle)
	require.ErrorIs(t, err, jsonenc.ErrTooDeep)
}

func TestEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	enc := jsonenc.NewEncoder(&buf)
	enc.SetIndent("", "  ")

	require.NoError(t, enc.Encode(map[string]any{"id": testID}))
	assert.Equal(t, "{\n  \"id\": \"6ba7b8109dad11d180b400c04fd430c8\"\n}\n", buf.String())
}
