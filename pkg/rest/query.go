package rest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// QueryParams represents common query parameters for list requests.
type QueryParams struct {
	Offset  int
	Limit   int
	OrderBy string
	Filters map[string][]string
}

// NewQueryParams creates a new QueryParams instance.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// ToValues converts QueryParams to url.Values. Multiple filter values are
// comma-joined.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q.Offset > 0 {
		values.Set(constants.OffsetParam, strconv.Itoa(q.Offset))
	}

	if q.Limit > 0 {
		values.Set(constants.LimitParam, strconv.Itoa(q.Limit))
	}

	if q.OrderBy != "" {
		values.Set("order_by", q.OrderBy)
	}

	for key, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(key, strings.Join(vals, ","))
		}
	}

	return values
}

// WithOffset sets the offset.
func (q *QueryParams) WithOffset(offset int) *QueryParams {
	q.Offset = offset

	return q
}

// WithLimit sets the page size.
func (q *QueryParams) WithLimit(limit int) *QueryParams {
	q.Limit = limit

	return q
}

// WithOrderBy sets the order.
func (q *QueryParams) WithOrderBy(orderBy string) *QueryParams {
	q.OrderBy = orderBy

	return q
}

// WithFilter appends values to a filter.
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// Cursor tracks progress through an offset/limit listing.
type Cursor struct {
	Offset int
	Limit  int
}

// NewCursor starts at offset zero.
func NewCursor(limit int) *Cursor {
	return &Cursor{Limit: limit}
}

// Advance moves to the next page.
func (c *Cursor) Advance() {
	c.Offset += c.Limit
}

// Apply writes the cursor into query values.
func (c *Cursor) Apply(values url.Values) {
	values.Set(constants.OffsetParam, strconv.Itoa(c.Offset))
	values.Set(constants.LimitParam, strconv.Itoa(c.Limit))
}
