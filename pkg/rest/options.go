package rest

import (
	"net/url"

	"github.com/baguette-io/baguette-utils/pkg/jsonenc"
)

// RequestOptions holds the per-call arguments assembled from RequestOption values.
type RequestOptions struct {
	// Query is merged into the request URL.
	Query url.Values
	// Headers replaces the client's default headers when ReplaceHeaders is set,
	// otherwise it is added on top of them.
	Headers        map[string]string
	ReplaceHeaders bool
	// Body is sent verbatim.
	Body []byte
	// Err records an option that could not be applied, such as a body that
	// failed to encode.
	Err error
}

// RequestOption customizes a single call.
type RequestOption func(*RequestOptions)

// NewRequestOptions applies opts in order.
func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	options := &RequestOptions{
		Query:   url.Values{},
		Headers: map[string]string{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	return options
}

// WithQuery merges values into the query string.
func WithQuery(values url.Values) RequestOption {
	return func(o *RequestOptions) {
		for key, vals := range values {
			for _, v := range vals {
				o.Query.Add(key, v)
			}
		}
	}
}

// WithParam sets a single query parameter, replacing previous values.
func WithParam(key, value string) RequestOption {
	return func(o *RequestOptions) {
		o.Query.Set(key, value)
	}
}

// WithQueryParams sets the parameters rendered by params.
func WithQueryParams(params *QueryParams) RequestOption {
	return func(o *RequestOptions) {
		if params == nil {
			return
		}

		for key, vals := range params.ToValues() {
			o.Query[key] = vals
		}
	}
}

// WithHeaders replaces the default headers entirely.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *RequestOptions) {
		o.ReplaceHeaders = true
		o.Headers = make(map[string]string, len(headers))

		for key, value := range headers {
			o.Headers[key] = value
		}
	}
}

// WithHeader adds one header on top of the defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		o.Headers[key] = value
	}
}

// WithBody sends body verbatim.
func WithBody(body []byte) RequestOption {
	return func(o *RequestOptions) {
		o.Body = body
	}
}

// WithJSON encodes v with the extended JSON encoder and sends it as the body.
func WithJSON(v any) RequestOption {
	return func(o *RequestOptions) {
		body, err := jsonenc.Marshal(v)
		if err != nil {
			o.Err = err

			return
		}

		o.Body = body
	}
}
