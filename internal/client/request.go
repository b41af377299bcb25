package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/baguette-io/baguette-utils/internal/http"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// Request issues a call and converts its outcome into an envelope.
func (c *Client) Request(
	ctx context.Context, method rest.Method, endpoint string, opts ...rest.RequestOption,
) *rest.Envelope {
	return c.request(ctx, method, endpoint, rest.NewRequestOptions(opts...))
}

func (c *Client) request(
	ctx context.Context, method rest.Method, endpoint string, options *rest.RequestOptions,
) *rest.Envelope {
	path := strings.TrimPrefix(endpoint, "/")
	fields := map[string]interface{}{
		"method": method.String(),
		"url":    c.baseURL + "/" + path,
		"query":  options.Query.Encode(),
	}

	if !method.Valid() {
		return c.fail(fields, rest.Fail(rest.StatusUnknown, rest.KindInvalid,
			fmt.Errorf("%w: %q", rest.ErrInvalidMethod, method.String())))
	}

	if options.Err != nil {
		return c.fail(fields, rest.Fail(rest.StatusUnknown, rest.KindEncode, options.Err))
	}

	req := &rest.Request{
		Method:   method,
		Path:     path,
		URL:      c.baseURL + "/" + path,
		Query:    options.Query,
		Headers:  make(nethttp.Header, len(options.Headers)),
		Body:     options.Body,
		Metadata: map[string]interface{}{},
	}

	for key, value := range options.Headers {
		req.Headers.Set(key, value)
	}

	// Cache hits skip the interceptors on both sides.
	cacheKey := ""
	if c.cache != nil && method == rest.MethodGet {
		cacheKey = rest.CacheKey(method, c.baseURL+"/"+path, options.Query)

		if envelope, ok := c.fromCache(ctx, cacheKey, fields); ok {
			return envelope
		}
	}

	err := c.interceptors.Before(ctx, req)
	if err != nil {
		return c.fail(fields, rest.Fail(rest.StatusUnknown, rest.KindTransport, err))
	}

	fields["query"] = req.Query.Encode()

	c.logger.Info("Calling API", map[string]interface{}{
		"method":  fields["method"],
		"url":     fields["url"],
		"query":   fields["query"],
		"timeout": c.httpClient.Timeout().String(),
		"retries": c.httpClient.RetryMax(),
	})

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:         method.String(),
		Path:           path,
		Query:          req.Query,
		Body:           req.Body,
		Headers:        flattenHeaders(req.Headers),
		ReplaceHeaders: options.ReplaceHeaders,
	})

	c.runResponseInterceptors(ctx, req, resp, err)

	if err != nil {
		return c.fail(fields, transportFailure(err))
	}

	fields["url"] = resp.URL
	fields["status_code"] = resp.StatusCode

	envelope := decodeBody(resp.URL, resp.Body)
	if !envelope.OK() {
		return c.fail(fields, envelope)
	}

	if cacheKey != "" {
		c.toCache(ctx, cacheKey, resp.Body)
	}

	c.logger.Info("API call succeeded", fields)

	return envelope
}

// transportFailure maps a transport error onto an envelope.
func transportFailure(err error) *rest.Envelope {
	exhausted := &rest.RetryExhaustedError{}
	if errors.As(err, &exhausted) {
		return rest.Fail(rest.StatusRetriesExhausted, rest.KindRetryExhausted, err)
	}

	httpErr := &rest.HTTPError{}
	if errors.As(err, &httpErr) {
		return rest.Fail(rest.Status(httpErr.StatusCode), rest.KindHTTP, err)
	}

	return rest.Fail(rest.StatusUnknown, rest.KindTransport, err)
}

// decodeBody decodes a 2xx body. An empty body is an empty object.
func decodeBody(rawURL string, body []byte) *rest.Envelope {
	if len(bytes.TrimSpace(body)) == 0 {
		return rest.Ok(nil)
	}

	var result any

	err := json.Unmarshal(body, &result)
	if err != nil {
		return rest.Fail(rest.StatusDecodeFailed, rest.KindDecode, &rest.DecodeError{
			URL:  rawURL,
			Body: http.Excerpt(body),
			Err:  err,
		})
	}

	return rest.Ok(result)
}

func (c *Client) fail(fields map[string]interface{}, envelope *rest.Envelope) *rest.Envelope {
	fields["status"] = envelope.Status.String()
	fields["kind"] = envelope.Kind.String()
	fields["error"] = envelope.Error().Error()

	switch envelope.Kind {
	case rest.KindRetryExhausted:
		fields["retries"] = c.httpClient.RetryMax()
		c.logger.Error("API call failed, too many retries", fields)
	case rest.KindDecode:
		c.logger.Error("Decoding API response failed", fields)
	default:
		c.logger.Error("API call failed", fields)
	}

	return envelope
}

func (c *Client) runResponseInterceptors(ctx context.Context, req *rest.Request, resp *http.Response, err error) {
	intercepted := &rest.Response{Error: err}
	if resp != nil {
		intercepted.StatusCode = resp.StatusCode
		intercepted.Headers = resp.Headers
		intercepted.Body = resp.Body
	}

	ierr := c.interceptors.After(ctx, req, intercepted)
	if ierr != nil {
		c.logger.Warn("Response interceptor failed", map[string]interface{}{
			"method": req.Method.String(),
			"url":    req.URL,
			"error":  ierr.Error(),
		})
	}
}

func (c *Client) fromCache(ctx context.Context, key string, fields map[string]interface{}) (*rest.Envelope, bool) {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	envelope := decodeBody(fields["url"].(string), entry.Data)
	if !envelope.OK() {
		_ = c.cache.Delete(ctx, key)

		return nil, false
	}

	c.logger.Debug("Serving cached response", fields)

	return envelope, true
}

func (c *Client) toCache(ctx context.Context, key string, body []byte) {
	err := c.cache.Set(ctx, key, &rest.CacheEntry{
		Data:      body,
		ExpiresAt: c.now().Add(c.cacheTTL),
	})
	if err != nil {
		c.logger.Warn("Caching response failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func flattenHeaders(header nethttp.Header) map[string]string {
	flat := make(map[string]string, len(header))

	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}

// cloneQuery copies values so pages never share a query map.
func cloneQuery(values url.Values) url.Values {
	cloned := make(url.Values, len(values))

	for key, vals := range values {
		cloned[key] = append([]string(nil), vals...)
	}

	return cloned
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
}
