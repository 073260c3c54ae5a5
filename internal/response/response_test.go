package response

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/rawhttp/internal/headers"
)

func TestStatusLineForEveryKnownCode(t *testing.T) {
	for code, reason := range statusText {
		got := string(New(code).Bytes())
		want := fmt.Sprintf("HTTP/1.1 %d %s\r\n", code, reason)
		assert.True(t, strings.HasPrefix(got, want), "code %d: %q", code, got)
	}
}

func TestWriterStatusLine(t *testing.T) {
	assert.True(t, bytes.HasPrefix(New(StatusOK).Bytes(), []byte("HTTP/1.1 200 OK\r\n")))
	assert.True(t, bytes.HasPrefix(New(StatusNotFound).Bytes(), []byte("HTTP/1.1 404 Not Found\r\n")))
	assert.True(t, bytes.HasPrefix(New(StatusInternalServerError).Bytes(), []byte("HTTP/1.1 500 Internal Server Error\r\n")))

	// codes outside the table keep an empty reason
	assert.True(t, bytes.HasPrefix(New(StatusCode(299)).Bytes(), []byte("HTTP/1.1 299 \r\n")))
}

func TestSerializeExactBytes(t *testing.T) {
	r := New(StatusOK).
		WithHeader("Content-Type", "text/plain").
		WithHeader("X-Request-Id", "abc").
		WithBody([]byte("Hello, World!"))

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"X-Request-Id: abc\r\n" +
		"Content-Length: 13\r\n" +
		"\r\n" +
		"Hello, World!"
	assert.Equal(t, want, string(r.Bytes()))

	// serializing twice gives the same output and leaves headers untouched
	assert.Equal(t, want, string(r.Bytes()))
	assert.False(t, r.Headers.Has("Content-Length"))
}

func TestSerializeKeepsCallerContentLength(t *testing.T) {
	r := New(StatusOK).
		WithHeader("content-length", "99").
		WithBody([]byte("short"))

	got := string(r.Bytes())
	assert.Contains(t, got, "content-length: 99\r\n")
	assert.Equal(t, 1, strings.Count(strings.ToLower(got), "content-length"))
}

func TestSerializeDuplicateHeaders(t *testing.T) {
	r := New(StatusOK)
	r.Headers.Add("Set-Cookie", "a=1")
	r.Headers.Add("Set-Cookie", "b=2")

	got := string(r.Bytes())
	assert.Contains(t, got, "Set-Cookie: a=1\r\nSet-Cookie: b=2\r\n")
}

func TestSerializeNilHeaders(t *testing.T) {
	r := &Response{Status: StatusNoContent}
	assert.Equal(t, "HTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n", string(r.Bytes()))
}

func TestWriteToMatchesBytes(t *testing.T) {
	r := Text(StatusCreated, "created")

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, r.Bytes(), buf.Bytes())
}

func TestWriteHeadToOmitsBody(t *testing.T) {
	r := Text(StatusOK, "hello")

	var buf bytes.Buffer
	n, err := r.WriteHeadTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	got := buf.String()
	assert.True(t, strings.HasSuffix(got, "Content-Length: 5\r\n\r\n"), got)
	assert.NotContains(t, got, "hello")
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("broken pipe")
	}
	w.after--
	return len(p), nil
}

func TestWriteToPropagatesErrors(t *testing.T) {
	r := Text(StatusOK, "body")

	_, err := r.WriteTo(&failingWriter{after: 0})
	assert.EqualError(t, err, "broken pipe")

	n, err := r.WriteTo(&failingWriter{after: 1})
	assert.EqualError(t, err, "broken pipe")
	assert.Equal(t, int64(len(r.Bytes())-len("body")), n)
}

// Re-parsing the serialized head must find a Content-Length equal to the body size.
func TestContentLengthRoundTrip(t *testing.T) {
	bodies := []string{"", "x", "Hello, World!", strings.Repeat("ü", 300)}

	for _, body := range bodies {
		wire := Text(StatusOK, body).Bytes()

		statusEnd := bytes.Index(wire, []byte("\r\n"))
		require.Greater(t, statusEnd, 0)

		h := headers.NewHeaders()
		n, done, err := h.Parse(wire[statusEnd+2:])
		require.NoError(t, err)
		require.True(t, done)

		cl, ok := h.Get("Content-Length")
		require.True(t, ok)
		declared, err := strconv.Atoi(cl)
		require.NoError(t, err)

		rest := wire[statusEnd+2+n:]
		assert.Equal(t, declared, len(rest))
		assert.Equal(t, body, string(rest))
	}
}

func TestHelpers(t *testing.T) {
	r := Text(StatusOK, "hi")
	ct, _ := r.Headers.Get("Content-Type")
	assert.Equal(t, "text/plain; charset=utf-8", ct)

	r = HTML(StatusOK, "<p>hi</p>")
	ct, _ = r.Headers.Get("content-type")
	assert.Equal(t, "text/html; charset=utf-8", ct)

	r = JSON(StatusOK, []byte(`{"ok":true}`))
	ct, _ = r.Headers.Get("content-type")
	assert.Equal(t, "application/json; charset=utf-8", ct)
	assert.Equal(t, `{"ok":true}`, string(r.Body))

	r = Error(StatusNotFound, "")
	assert.Equal(t, "Error 404: Not Found\n", string(r.Body))
	r = Error(StatusCode(599), "")
	assert.Equal(t, "Error 599: Unknown Error\n", string(r.Body))

	r = Bytes(StatusOK, "application/octet-stream", []byte{1, 2, 3})
	cl, _ := r.Headers.Get("Content-Length")
	assert.Equal(t, "3", cl)

	r, err := Redirect(StatusFound, "/login")
	require.NoError(t, err)
	loc, _ := r.Headers.Get("Location")
	assert.Equal(t, "/login", loc)
	_, err = Redirect(StatusOK, "/login")
	assert.Error(t, err)

	assert.Equal(t, StatusNoContent, NoContent().Status)
}

func TestBadRequest(t *testing.T) {
	r := BadRequest(errors.New("invalid HTTP method"))
	assert.Equal(t, StatusBadRequest, r.Status)
	assert.Equal(t, "Error 400: invalid HTTP method\n", string(r.Body))
	conn, _ := r.Headers.Get("Connection")
	assert.Equal(t, "close", conn)

	long := BadRequest(errors.New(strings.Repeat("x", 1000)))
	assert.Less(t, len(long.Body), 300)

	assert.Equal(t, "Error 400: malformed request\n", string(BadRequest(nil).Body))
}

func TestBadRequestTruncatesOnRuneBoundary(t *testing.T) {
	// one ASCII byte shifts the two-byte runes so byte 200 falls mid-rune
	r := BadRequest(errors.New("/" + strings.Repeat("é", 300)))

	body := string(r.Body)
	assert.True(t, utf8.ValidString(body), "%q", body)
	assert.True(t, strings.HasSuffix(body, "é...\n"), body)
}

func TestStatusLookup(t *testing.T) {
	for code, reason := range statusText {
		assert.Equal(t, reason, code.Reason())
		back, ok := StatusForReason(reason)
		assert.True(t, ok)
		assert.Equal(t, code, back)
	}

	_, ok := StatusForReason("not found")
	assert.False(t, ok)
	assert.Equal(t, "", StatusCode(799).Reason())
}

func TestStatusClasses(t *testing.T) {
	assert.True(t, StatusContinue.IsInformational())
	assert.True(t, StatusOK.IsSuccess())
	assert.True(t, StatusFound.IsRedirect())
	assert.True(t, StatusNotFound.IsClientError())
	assert.True(t, StatusBadGateway.IsServerError())
	assert.True(t, StatusTeapot.IsError())
	assert.False(t, StatusOK.IsError())

	assert.True(t, StatusCode(100).Valid())
	assert.True(t, StatusCode(599).Valid())
	assert.False(t, StatusCode(99).Valid())
	assert.False(t, StatusCode(600).Valid())
}
