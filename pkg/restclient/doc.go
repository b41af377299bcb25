// Package restclient provides the entry point for constructing a client that
// implements the rest.Client interface.
//
// It normalizes the configuration, fills in defaults and builds the retrying
// transport once; every call made through the returned client reuses it.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/baguette-io/baguette-utils/pkg/rest"
//	  "github.com/baguette-io/baguette-utils/pkg/restclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // "https://" is added when the scheme is missing.
//	  cli, err := restclient.NewWithBaseURL("api.example.com")
//	  if err != nil { log.Fatal(err) }
//
//	  envelope := cli.Get(ctx, "/users", rest.WithParam("active", "true"))
//	  if !envelope.OK() {
//	    log.Printf("status %s: %v", envelope.Status, envelope.Error())
//	  }
//
//	  // Walk every page of an offset/limit listing.
//	  users := cli.All(ctx, "/users").Data()
//	  _ = users
//	}
//
// # Envelopes
//
// Calls never return an error: the outcome is an envelope whose status is 0
// on success, 2 when the body is not JSON, 429 when retries ran out, the HTTP
// status of any other failed response, or rest.StatusUnknown when no response
// was received. Envelope.Kind and Envelope.Err carry the typed cause.
//
// # Helpers
//
// NewWithBaseURL builds a client with default settings, and NewWithCache adds
// a response cache built from a rest.CacheConfig.
package restclient
