package request

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/rawhttp/internal/headers"
)

var (
	crlf = []byte("\r\n")

	errContentLengthMismatch = errors.Wrap(ErrInvalidRequest, "conflicting Content-Length values")
)

// Parse builds a Request from a buffer holding at least the request line and
// header block. It does no I/O and never panics on malformed input.
//
// ErrIncompleteRequest means the buffer ended early (no CRLF after the
// request line, no empty line after the headers, or fewer body bytes than
// Content-Length declares); the caller may retry with more bytes. Bytes past
// the declared body are ignored.
func Parse(buf []byte) (*Request, error) {
	req, read, err := ParseHead(buf)
	if err != nil {
		return nil, err
	}

	length := req.ContentLength()
	if length <= 0 {
		return req, nil
	}

	available := int64(len(buf) - read)
	if available < length {
		return nil, errors.Wrapf(ErrIncompleteRequest, "body has %d of %d bytes", available, length)
	}

	// copied so the request does not alias the connection's read buffer
	req.Body = bytes.Clone(buf[read : read+int(length)])
	return req, nil
}

// ParseHead parses the request line and header block only and returns the
// request without a body plus the number of head bytes consumed. Conflicting
// Content-Length values are rejected here, so ContentLength on the result is
// the declared body size, or -1 for none.
func ParseHead(buf []byte) (*Request, int, error) {
	idx := bytes.Index(buf, crlf)
	if idx == -1 {
		return nil, 0, errors.Wrap(ErrIncompleteRequest, "no request line terminator")
	}

	rl, err := parseRequestLine(buf[:idx])
	if err != nil {
		return nil, 0, err
	}
	read := idx + len(crlf)

	h := headers.NewHeaders()
	n, done, err := h.Parse(buf[read:])
	if err != nil {
		return nil, 0, errors.Wrapf(ErrInvalidRequest, "header: %v", err)
	}
	if !done {
		return nil, 0, errors.Wrap(ErrIncompleteRequest, "header block not terminated")
	}
	read += n

	if _, _, err := contentLength(h); err != nil {
		return nil, 0, err
	}

	return &Request{
		Method:   rl.method,
		Path:     rl.path,
		Query:    rl.query,
		Proto:    rl.proto,
		Headers:  h,
		rawQuery: rl.rawQuery,
	}, read, nil
}
