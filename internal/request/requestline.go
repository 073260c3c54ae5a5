package request

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

const (
	ProtoHTTP10 = "HTTP/1.0"
	ProtoHTTP11 = "HTTP/1.1"
)

type requestLine struct {
	method   Method
	path     string
	query    *QueryString
	rawQuery string
	proto    string
}

// parseRequestLine parses: METHOD TARGET VERSION (without the CRLF).
func parseRequestLine(line []byte) (requestLine, error) {
	parts := bytes.Split(line, []byte(" "))
	if len(parts) != 3 {
		return requestLine{}, errors.Wrapf(ErrInvalidRequest, "request line has %d tokens", len(parts))
	}

	method, err := ParseMethod(string(parts[0]))
	if err != nil {
		return requestLine{}, err
	}

	path, rawQuery, hasQuery := strings.Cut(string(parts[1]), "?")
	if !isValidPath(path) {
		return requestLine{}, errors.Wrapf(ErrInvalidRequest, "path %q must start with /", path)
	}

	proto := string(parts[2])
	if !isValidVersion(proto) {
		return requestLine{}, errors.Wrapf(ErrInvalidProtocol, "%q", proto)
	}

	rl := requestLine{method: method, path: path, proto: proto}
	if hasQuery {
		q := ParseQueryString(rawQuery)
		rl.query = &q
		rl.rawQuery = rawQuery
	}
	return rl, nil
}

// isValidPath checks the path is in origin-form
func isValidPath(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// isValidVersion checks if HTTP version is supported
func isValidVersion(version string) bool {
	return version == ProtoHTTP10 || version == ProtoHTTP11
}
