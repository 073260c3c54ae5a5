package response

import (
	"bytes"
	"io"
	"strconv"
)

// Bytes serializes the response: status line, headers in insertion order, a
// Content-Length header when the caller did not set one, a blank line, and
// the body. A caller-set Content-Length is written unchanged even if it does
// not match the body.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(128 + len(r.Body))
	r.writeHead(&buf)
	buf.Write(r.Body)
	return buf.Bytes()
}

// WriteTo writes the serialized response to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var head bytes.Buffer
	r.writeHead(&head)

	n, err := w.Write(head.Bytes())
	total := int64(n)
	if err != nil {
		return total, err
	}
	if len(r.Body) == 0 {
		return total, nil
	}

	n, err = w.Write(r.Body)
	total += int64(n)
	return total, err
}

// WriteHeadTo writes the status line and headers only, as sent for HEAD.
// Content-Length still reflects the body.
func (r *Response) WriteHeadTo(w io.Writer) (int64, error) {
	var head bytes.Buffer
	r.writeHead(&head)
	n, err := w.Write(head.Bytes())
	return int64(n), err
}

func (r *Response) writeHead(buf *bytes.Buffer) {
	buf.WriteString(Proto)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(int(r.Status)))
	buf.WriteByte(' ')
	buf.WriteString(r.Status.Reason())
	buf.WriteString("\r\n")

	hasLength := false
	if r.Headers != nil {
		hasLength = r.Headers.Has("Content-Length")
		r.Headers.Each(func(name, value string) {
			writeField(buf, name, value)
		})
	}
	if !hasLength {
		writeField(buf, "Content-Length", strconv.Itoa(len(r.Body)))
	}

	buf.WriteString("\r\n")
}

func writeField(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
