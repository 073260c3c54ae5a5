package request

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Value holds the value(s) of one query key. A key seen once is Single; a
// key seen two or more times is Multiple, in first-seen order.
type Value struct {
	values []string
}

func (v Value) IsMultiple() bool {
	return len(v.values) > 1
}

// Single returns the value when the key appeared exactly once.
func (v Value) Single() (string, bool) {
	if len(v.values) != 1 {
		return "", false
	}
	return v.values[0], true
}

// Multiple returns the values when the key appeared more than once.
func (v Value) Multiple() ([]string, bool) {
	if len(v.values) < 2 {
		return nil, false
	}
	return append([]string(nil), v.values...), true
}

// All returns every value regardless of shape.
func (v Value) All() []string {
	return append([]string(nil), v.values...)
}

// First returns the first value seen for the key.
func (v Value) First() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// QueryString maps keys to values parsed from the query component of a
// request target. It is not modified after parsing.
type QueryString struct {
	entries map[string]*Value
	keys    []string
}

// ParseQueryString splits raw on '&' and each pair on its first '='. A pair
// without '=' gets an empty value; empty segments are skipped. No decoding
// is applied.
func ParseQueryString(raw string) QueryString {
	q, _ := parseQuery(raw, nil)
	return q
}

// ParseQueryStringDecoded is ParseQueryString with percent-decoding ('+' is
// a space) applied to keys and values before insertion. An invalid escape
// fails the whole parse with ErrInvalidEncoding.
func ParseQueryStringDecoded(raw string) (QueryString, error) {
	return parseQuery(raw, func(s string) (string, error) {
		d, err := url.QueryUnescape(s)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidEncoding, "%q", s)
		}
		return d, nil
	})
}

func parseQuery(raw string, decode func(string) (string, error)) (QueryString, error) {
	q := QueryString{entries: make(map[string]*Value)}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		if decode != nil {
			var err error
			if key, err = decode(key); err != nil {
				return QueryString{}, err
			}
			if value, err = decode(value); err != nil {
				return QueryString{}, err
			}
		}

		q.add(key, value)
	}

	return q, nil
}

func (q *QueryString) add(key, value string) {
	if v, ok := q.entries[key]; ok {
		v.values = append(v.values, value)
		return
	}
	q.entries[key] = &Value{values: []string{value}}
	q.keys = append(q.keys, key)
}

// Get returns the value for a key
func (q QueryString) Get(key string) (Value, bool) {
	v, ok := q.entries[key]
	if !ok {
		return Value{}, false
	}
	return *v, true
}

// First returns the first value for a key, or "" when the key is absent.
func (q QueryString) First(key string) string {
	v, _ := q.Get(key)
	return v.First()
}

// Keys returns the keys in first-seen order.
func (q QueryString) Keys() []string {
	return append([]string(nil), q.keys...)
}

func (q QueryString) Len() int {
	return len(q.keys)
}
