package server

import (
	"github.com/pkg/errors"

	"github.com/Brownie44l1/rawhttp/internal/request"
)

var (
	ErrNotListening = errors.New("server is not listening")
	ErrServerClosed = errors.New("server closed")

	// ErrRequestTooLarge is returned when MaxRequestBytes are buffered and the
	// request is still incomplete. It matches request.ErrInvalidRequest.
	ErrRequestTooLarge = errors.Wrap(request.ErrInvalidRequest, "request exceeds maximum size")
)

// ConnectionError is an I/O failure on an accepted connection. It only ends
// that connection.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return "connection " + e.Op + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func isParseError(err error) bool {
	return errors.Is(err, request.ErrInvalidMethod) ||
		errors.Is(err, request.ErrInvalidProtocol) ||
		errors.Is(err, request.ErrInvalidRequest) ||
		errors.Is(err, request.ErrIncompleteRequest)
}
