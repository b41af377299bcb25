// Package rest provides types, interfaces, and helpers for calling a JSON
// REST API through a fail-soft client.
//
// # Overview
//
// The rest package defines the Client interface, its Config, the Envelope
// every call returns, request options, interceptors and response caches. A
// concrete implementation is provided by the restclient package, which
// normalizes the configuration and builds the retrying transport. Most
// consumers import restclient to construct a client and use the types here.
//
// # Envelopes
//
// A call never returns an error. Envelope.Status is 0 on success, 2 when a
// 2xx body is not valid JSON, 429 when retries ran out on a retry status, the
// HTTP status of any other failed response, or StatusUnknown when no response
// was received. Envelope.Kind and Envelope.Err describe the failure:
//
//	envelope := cli.Get(ctx, "users/42")
//	switch {
//	case envelope.OK():
//	  var user User
//	  _ = envelope.Decode(&user)
//	case IsHTTPStatus(envelope.Error(), http.StatusNotFound):
//	  // handle not found
//	case IsRetryExhausted(envelope.Error()):
//	  // the API kept failing
//	}
//
// # Queries and pagination
//
// WithParam, WithQuery and WithQueryParams add query parameters. Client.All
// walks an offset/limit listing whose pages look like
// {"data": [...], "meta": {"next": ...}}, merging every page's data into one
// result and dropping meta. The walk stops at the first failed page and at
// Config.MaxPages.
//
// # Interceptors and caching
//
// RequestInterceptor and ResponseInterceptor hooks run around every HTTP
// exchange; LoggingInterceptor, HeaderInterceptor and RateLimitInterceptor
// are provided. When Config.Cache is set, successful GET bodies are kept for
// Config.CacheTTL in a MemoryCache, a NATSKVCache backed by a JetStream
// key-value bucket, or a CacheChain of both.
package rest
