package query

import "context"

// Typed extracts successful data as T.
func Typed[T any](e Entry) (T, bool) {
	var zero T
	if e.Status != StatusSuccess {
		return zero, false
	}
	v, ok := e.Data.(T)
	return v, ok
}

// Get runs a typed query. A typed nil result (for example a nil pointer
// meaning "not found") is a successful entry.
func Get[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error), opts ...Option) (T, Entry) {
	e := c.Query(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, opts...)
	v, _ := Typed[T](e)
	return v, e
}
