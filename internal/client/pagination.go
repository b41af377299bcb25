package client

import (
	"context"
	"fmt"

	"github.com/baguette-io/baguette-utils/pkg/rest"
)

const (
	metaKey = "meta"
	nextKey = "next"
	dataKey = "data"
)

// All walks an offset/limit listing with GET and merges every page's data
// into the first page's result. The first failing page is returned as is.
func (c *Client) All(ctx context.Context, endpoint string, opts ...rest.RequestOption) *rest.Envelope {
	options := rest.NewRequestOptions(opts...)
	cursor := rest.NewCursor(c.limit)

	first := c.page(ctx, endpoint, options, cursor)
	if !first.OK() {
		return first
	}

	result, ok := first.Result.(map[string]any)
	if !ok {
		return c.malformed(endpoint, cursor, "page is not an object")
	}

	hasNext := nextPage(result)

	var data []any
	if hasNext {
		data, ok = result[dataKey].([]any)
		if !ok {
			return c.malformed(endpoint, cursor, "page has no data list")
		}
	}

	for pages := 1; hasNext; pages++ {
		if pages >= c.maxPages {
			err := fmt.Errorf("%w: more than %d pages", rest.ErrTooManyPages, c.maxPages)

			return c.fail(map[string]interface{}{
				"method": rest.MethodGet.String(),
				"url":    c.endpointURL(endpoint),
				"offset": cursor.Offset,
			}, rest.Fail(rest.StatusUnknown, rest.KindPagination, err))
		}

		cursor.Advance()

		next := c.page(ctx, endpoint, options, cursor)
		if !next.OK() {
			return next
		}

		page, ok := next.Result.(map[string]any)
		if !ok {
			return c.malformed(endpoint, cursor, "page is not an object")
		}

		items, ok := page[dataKey].([]any)
		if !ok {
			return c.malformed(endpoint, cursor, "page has no data list")
		}

		data = append(data, items...)
		hasNext = nextPage(page)
	}

	if data != nil {
		result[dataKey] = data
	}

	delete(result, metaKey)

	return first
}

func (c *Client) page(
	ctx context.Context, endpoint string, options *rest.RequestOptions, cursor *rest.Cursor,
) *rest.Envelope {
	pageOptions := *options
	pageOptions.Query = cloneQuery(options.Query)
	cursor.Apply(pageOptions.Query)

	return c.request(ctx, rest.MethodGet, endpoint, &pageOptions)
}

func (c *Client) malformed(endpoint string, cursor *rest.Cursor, reason string) *rest.Envelope {
	err := fmt.Errorf("%w: %s at offset %d", rest.ErrMalformedPage, reason, cursor.Offset)

	return c.fail(map[string]interface{}{
		"method": rest.MethodGet.String(),
		"url":    c.endpointURL(endpoint),
		"offset": cursor.Offset,
	}, rest.Fail(rest.StatusDecodeFailed, rest.KindDecode, err))
}

// nextPage reads meta.next. A missing meta means a single page.
func nextPage(result map[string]any) bool {
	meta, ok := result[metaKey].(map[string]any)
	if !ok {
		return false
	}

	return truthy(meta[nextKey])
}

// truthy treats false, null, zero, empty strings and empty collections as false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
