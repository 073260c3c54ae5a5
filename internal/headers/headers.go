package headers

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrLineFolding     = errors.New("obsolete line folding not supported")
	ErrInvalidName     = errors.New("invalid character in header name")
)

var crlf = []byte("\r\n")

type field struct {
	name  string
	value string
}

// Headers is an ordered list of header fields. Lookups ignore case; names keep
// the case they were added with so serialization reproduces them.
type Headers struct {
	fields []field
}

func NewHeaders() *Headers {
	return &Headers{}
}

// Get returns the values for a header combined with ", ", the way RFC 9110
// allows repeated fields to be merged.
func (h *Headers) Get(key string) (string, bool) {
	values := h.Values(key)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ", "), true
}

// Values returns every value for a header in the order they were added.
func (h *Headers) Values(key string) []string {
	var values []string
	for _, f := range h.fields {
		if strings.EqualFold(f.name, key) {
			values = append(values, f.value)
		}
	}
	return values
}

func (h *Headers) Has(key string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.name, key) {
			return true
		}
	}
	return false
}

// Set replaces all values for a header. The field keeps the position of its
// first occurrence, or goes last when it is new.
func (h *Headers) Set(key, value string) {
	for i, f := range h.fields {
		if strings.EqualFold(f.name, key) {
			h.fields[i] = field{name: key, value: value}
			h.removeFrom(i+1, key)
			return
		}
	}
	h.fields = append(h.fields, field{name: key, value: value})
}

// Add appends a value to a header
func (h *Headers) Add(key, value string) {
	h.fields = append(h.fields, field{name: key, value: value})
}

// Del removes a header
func (h *Headers) Del(key string) {
	h.removeFrom(0, key)
}

func (h *Headers) removeFrom(start int, key string) {
	kept := h.fields[:start]
	for _, f := range h.fields[start:] {
		if !strings.EqualFold(f.name, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *Headers) Len() int {
	return len(h.fields)
}

// Each calls fn for every field in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

func (h *Headers) Clone() *Headers {
	c := &Headers{fields: make([]field, len(h.fields))}
	copy(c.fields, h.fields)
	return c
}

// Parse parses header lines from raw bytes. It returns the number of bytes
// consumed and whether the empty line ending the block was reached. A partial
// trailing line is left unconsumed.
func (h *Headers) Parse(data []byte) (int, bool, error) {
	read := 0
	done := false

	for {
		idx := bytes.Index(data[read:], crlf)
		if idx == -1 {
			// Need more data
			break
		}

		if idx == 0 {
			// Empty line = end of headers
			done = true
			read += 2
			break
		}

		line := data[read : read+idx]

		if line[0] == ' ' || line[0] == '\t' {
			return read, false, ErrLineFolding
		}

		name, value, err := parseHeader(line)
		if err != nil {
			return read, false, err
		}

		h.Add(name, value)

		read += idx + 2
	}

	return read, done, nil
}

func parseHeader(line []byte) (string, string, error) {
	colonIdx := bytes.IndexByte(line, ':')
	if colonIdx == -1 {
		return "", "", errors.Wrap(ErrMalformedHeader, "no colon")
	}

	name := line[:colonIdx]
	value := line[colonIdx+1:]

	if len(name) == 0 {
		return "", "", errors.Wrap(ErrMalformedHeader, "empty name")
	}
	if bytes.ContainsAny(name, " \t") {
		return "", "", errors.Wrap(ErrMalformedHeader, "whitespace in name")
	}

	for _, b := range name {
		if !isTokenChar(b) {
			return "", "", errors.Wrapf(ErrInvalidName, "%q", b)
		}
	}

	return string(name), string(bytes.Trim(value, " \t")), nil
}

func isTokenChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}
