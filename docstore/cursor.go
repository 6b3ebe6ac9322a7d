package docstore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cursor is an opaque position in a store's sort order. Callers only pass
// it back to the store that produced it.
type Cursor struct {
	values []any
}

// NewCursor builds a cursor from raw sort values.
func NewCursor(values ...any) *Cursor {
	return &Cursor{values: values}
}

// Values returns the sort values the cursor encodes.
func (c *Cursor) Values() []any {
	if c == nil {
		return nil
	}
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// String encodes the cursor for use in URLs.
func (c *Cursor) String() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c.values)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// ParseCursor decodes a cursor produced by String. An empty string is the
// start of the feed and yields nil.
func ParseCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no sort values", ErrInvalidCursor)
	}
	return &Cursor{values: values}, nil
}

// keyset interprets the cursor as the (published_key, id) pair used by
// SQLStore.
func (c *Cursor) keyset() (int64, string, error) {
	if len(c.values) != 2 {
		return 0, "", fmt.Errorf("%w: want 2 sort values, got %d", ErrInvalidCursor, len(c.values))
	}

	var key int64
	switch v := c.values[0].(type) {
	case int64:
		key = v
	case int:
		key = int64(v)
	case float64:
		key = int64(v)
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		key = n
	default:
		return 0, "", fmt.Errorf("%w: sort key is %T", ErrInvalidCursor, v)
	}

	id, ok := c.values[1].(string)
	if !ok {
		return 0, "", fmt.Errorf("%w: id is %T", ErrInvalidCursor, c.values[1])
	}
	return key, id, nil
}
