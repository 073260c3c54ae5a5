package response

import (
	"github.com/Brownie44l1/rawhttp/internal/headers"
)

const Proto = "HTTP/1.1"

// Response is an outgoing HTTP/1.1 message. It is written once by the
// connection that owns it.
type Response struct {
	Status  StatusCode
	Headers *headers.Headers
	Body    []byte
}

// New creates an empty response with the given status
func New(status StatusCode) *Response {
	return &Response{
		Status:  status,
		Headers: headers.NewHeaders(),
	}
}

// WithHeader sets a header and returns the response for chaining
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = headers.NewHeaders()
	}
	r.Headers.Set(key, value)
	return r
}

// WithBody replaces the body and returns the response for chaining
func (r *Response) WithBody(body []byte) *Response {
	r.Body = body
	return r
}
