package request

import (
	"strconv"

	"github.com/Brownie44l1/rawhttp/internal/headers"
)

// Request is a parsed HTTP/1.x request. It is built once by Parse and is not
// modified afterwards, apart from RemoteAddr which the server fills in before
// dispatch.
type Request struct {
	Method Method
	// Path never includes the query component.
	Path string
	// Query is nil when the request target had no '?'.
	Query   *QueryString
	Proto   string
	Headers *headers.Headers
	Body    []byte

	RemoteAddr string

	rawQuery string
}

// Header returns a header value, duplicates joined with ", ".
func (r *Request) Header(key string) string {
	v, _ := r.Headers.Get(key)
	return v
}

// ContentLength returns the declared body length, or -1 when there is no
// usable Content-Length header.
func (r *Request) ContentLength() int64 {
	n, ok, err := contentLength(r.Headers)
	if err != nil || !ok {
		return -1
	}
	return n
}

// RawQuery returns the query component exactly as received.
func (r *Request) RawQuery() string {
	return r.rawQuery
}

// DecodedQuery parses the query component with percent-decoding. It returns
// nil, nil when the target had no query.
func (r *Request) DecodedQuery() (*QueryString, error) {
	if r.Query == nil {
		return nil, nil
	}
	q, err := ParseQueryStringDecoded(r.rawQuery)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *Request) IsHTTP10() bool {
	return r.Proto == ProtoHTTP10
}

// Target rebuilds the request target from path and query.
func (r *Request) Target() string {
	if r.Query == nil {
		return r.Path
	}
	return r.Path + "?" + r.rawQuery
}

// contentLength reads Content-Length. ok is false when the header is absent
// or not a non-negative integer; differing duplicate values are an error.
func contentLength(h *headers.Headers) (int64, bool, error) {
	values := h.Values("Content-Length")
	if len(values) == 0 {
		return 0, false, nil
	}

	for _, v := range values[1:] {
		if v != values[0] {
			return 0, false, errContentLengthMismatch
		}
	}

	n, err := strconv.ParseUint(values[0], 10, 63)
	if err != nil {
		return 0, false, nil
	}
	return int64(n), true, nil
}
