package response

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const maxDiagnostic = 200

// Text builds a plain text response
func Text(code StatusCode, body string) *Response {
	return New(code).
		WithHeader("Content-Type", "text/plain; charset=utf-8").
		WithBody([]byte(body))
}

// HTML builds an HTML response
func HTML(code StatusCode, body string) *Response {
	return New(code).
		WithHeader("Content-Type", "text/html; charset=utf-8").
		WithBody([]byte(body))
}

// JSON builds a JSON response from an already encoded body
func JSON(code StatusCode, body []byte) *Response {
	return New(code).
		WithHeader("Content-Type", "application/json; charset=utf-8").
		WithBody(body)
}

// Error builds a standard error response. An empty message falls back to the
// reason phrase.
func Error(code StatusCode, message string) *Response {
	if message == "" {
		message = code.Reason()
		if message == "" {
			message = "Unknown Error"
		}
	}

	body := fmt.Sprintf("Error %d: %s\n", code, message)
	return Text(code, body)
}

// BadRequest is the response the server sends when a request cannot be parsed.
func BadRequest(err error) *Response {
	msg := "malformed request"
	if err != nil {
		msg = err.Error()
	}
	if len(msg) > maxDiagnostic {
		cut := maxDiagnostic
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return Error(StatusBadRequest, msg).WithHeader("Connection", "close")
}

// NoContent builds a 204 response
func NoContent() *Response {
	return New(StatusNoContent)
}

// Redirect builds a redirect response
func Redirect(code StatusCode, location string) (*Response, error) {
	switch code {
	case StatusMovedPermanently, StatusFound, StatusSeeOther, StatusTemporaryRedirect, StatusPermanentRedirect:
	default:
		return nil, errors.Errorf("invalid redirect status code: %d", code)
	}

	return New(code).WithHeader("Location", location), nil
}

// Bytes builds a response with arbitrary content
func Bytes(code StatusCode, contentType string, data []byte) *Response {
	r := New(code).WithBody(data)
	if contentType != "" {
		r.Headers.Set("Content-Type", contentType)
	}
	r.Headers.Set("Content-Length", strconv.Itoa(len(data)))
	return r
}
