package request

import "github.com/pkg/errors"

// Parse failures. Parse wraps these with detail; match them with errors.Is.
var (
	ErrInvalidMethod     = errors.New("invalid HTTP method")
	ErrInvalidProtocol   = errors.New("unsupported HTTP version")
	ErrInvalidRequest    = errors.New("malformed request")
	ErrIncompleteRequest = errors.New("incomplete request")
	ErrInvalidEncoding   = errors.New("invalid percent-encoding")
)

// IsIncomplete reports whether err means the buffer ended before a full
// request, so reading more bytes may let Parse succeed.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteRequest)
}
