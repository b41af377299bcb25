package http

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// idempotentMethods are retried on a retry status; other methods only on
// connection errors.
var idempotentMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// IsIdempotent reports whether method is retried on a retry status.
func IsIdempotent(method string) bool {
	_, ok := idempotentMethods[method]

	return ok
}

func (c *Client) isRetryStatus(code int) bool {
	_, ok := c.retryStatuses[code]

	return ok
}

// checkRetry retries connection errors, and retry statuses for idempotent
// methods. A done context stops everything.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if !c.isRetryStatus(resp.StatusCode) {
		return false, nil
	}

	method := http.MethodGet
	if resp.Request != nil {
		method = resp.Request.Method
	}

	return IsIdempotent(method), nil
}

// backoff waits factor * 2^n seconds before the n-th retry, counting from
// zero, with no wait before the first retry. Retry-After wins on 429 and 503.
func (c *Client) backoff(_, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if wait, ok := retryAfter(resp); ok {
			return min(wait, maxWait)
		}
	}

	return BackoffDuration(c.backoffFactor, attemptNum, maxWait)
}

// BackoffDuration computes the exponential wait before retry attemptNum.
func BackoffDuration(factor float64, attemptNum int, maxWait time.Duration) time.Duration {
	if attemptNum <= 0 || factor <= 0 {
		return 0
	}

	seconds := factor * math.Pow(2, float64(attemptNum))

	wait := time.Duration(seconds * float64(time.Second))
	if wait <= 0 || wait > maxWait {
		return maxWait
	}

	return wait
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	value := resp.Header.Get(constants.HeaderRetryAfter)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}

	if date, err := http.ParseTime(value); err == nil {
		return max(time.Until(date), 0), true
	}

	return 0, false
}

// errorHandler runs once the retry loop stops on a failure. Spent retries on
// a retry status become a RetryExhaustedError.
func (c *Client) errorHandler(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if resp != nil {
		_ = resp.Body.Close()
	}

	if err == nil && resp != nil && c.isRetryStatus(resp.StatusCode) {
		exhausted := &rest.RetryExhaustedError{
			Attempts:   numTries,
			StatusCode: resp.StatusCode,
		}

		if resp.Request != nil {
			exhausted.Method = resp.Request.Method
			exhausted.URL = resp.Request.URL.String()
		}

		return nil, exhausted
	}

	if err == nil {
		return nil, fmt.Errorf("giving up after %d attempt(s): %w", numTries, ErrNoResponse)
	}

	return nil, fmt.Errorf("giving up after %d attempt(s): %w", numTries, err)
}

func (c *Client) logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

// leveledLogger bridges retryablehttp's leveled logging to rest.Logger.
type leveledLogger struct {
	logger rest.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsFromPairs(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFromPairs(keysAndValues))
}

func fieldsFromPairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}
