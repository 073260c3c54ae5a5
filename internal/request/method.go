package request

import "github.com/pkg/errors"

// Method is an HTTP request method. The zero value is not a valid method.
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
	MethodConnect
	MethodTrace
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
	MethodConnect: "CONNECT",
	MethodTrace:   "TRACE",
}

// ParseMethod maps a request-line token to a Method. The match is exact:
// no case folding and no trimming.
func ParseMethod(token string) (Method, error) {
	switch token {
	case "GET":
		return MethodGet, nil
	case "POST":
		return MethodPost, nil
	case "PUT":
		return MethodPut, nil
	case "DELETE":
		return MethodDelete, nil
	case "HEAD":
		return MethodHead, nil
	case "OPTIONS":
		return MethodOptions, nil
	case "PATCH":
		return MethodPatch, nil
	case "CONNECT":
		return MethodConnect, nil
	case "TRACE":
		return MethodTrace, nil
	default:
		return 0, errors.Wrapf(ErrInvalidMethod, "%q", token)
	}
}

func (m Method) String() string {
	if m == 0 || int(m) >= len(methodNames) {
		return ""
	}
	return methodNames[m]
}

func (m Method) Valid() bool {
	return m.String() != ""
}
