package headers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderParse(t *testing.T) {
	// Test: Valid single header
	h := NewHeaders()
	data := []byte("Host: localhost:42069\r\n")
	n, done, err := h.Parse(data)
	require.NoError(t, err)
	val, ok := h.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "localhost:42069", val)
	assert.Equal(t, 23, n)
	assert.False(t, done)

	// Test: Valid single header with extra whitespace
	h = NewHeaders()
	data = []byte("Host:   localhost:42069   \r\n")
	_, done, err = h.Parse(data)
	require.NoError(t, err)
	val, ok = h.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "localhost:42069", val)
	assert.False(t, done)

	// Test: Empty line signals end of headers
	h = NewHeaders()
	data = []byte("\r\n")
	n, done, err = h.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, done)

	// Test: Headers followed by empty line
	h = NewHeaders()
	data = []byte("Host: example.com\r\n\r\n")
	n, done, err = h.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	assert.True(t, done)

	// Test: Incomplete headers (no \r\n yet)
	h = NewHeaders()
	data = []byte("Host: example.com")
	n, done, err = h.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, done)
	assert.Equal(t, 0, h.Len())

	// Test: Empty header value (allowed)
	h = NewHeaders()
	data = []byte("X-Empty:\r\n")
	_, _, err = h.Parse(data)
	require.NoError(t, err)
	val, ok = h.Get("x-empty")
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestHeaderParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"whitespace before colon", "Host : localhost\r\n", ErrMalformedHeader},
		{"whitespace in name", "Ho st: localhost\r\n", ErrMalformedHeader},
		{"no colon", "InvalidHeader\r\n", ErrMalformedHeader},
		{"empty name", ": value\r\n", ErrMalformedHeader},
		{"invalid character", "H\xc2\xa9st: localhost\r\n", ErrInvalidName},
		{"folding with space", "Host: example.com\r\n continued\r\n", ErrLineFolding},
		{"folding with tab", "Host: example.com\r\n\tcontinued\r\n", ErrLineFolding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewHeaders().Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestHeaderDuplicates(t *testing.T) {
	h := NewHeaders()
	_, done, err := h.Parse([]byte("Accept: text/html\r\nHost: x\r\naccept: application/json\r\n\r\n"))
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, []string{"text/html", "application/json"}, h.Values("ACCEPT"))

	val, ok := h.Get("accept")
	assert.True(t, ok)
	assert.Equal(t, "text/html, application/json", val)
}

func TestHeaderOrderAndCase(t *testing.T) {
	h := NewHeaders()
	h.Add("Content-Type", "text/plain")
	h.Add("X-Custom", "value1")
	h.Add("x-custom", "value2")
	h.Add("Server", "rawhttp")

	var names []string
	h.Each(func(name, value string) {
		names = append(names, name+"="+value)
	})
	assert.Equal(t, []string{
		"Content-Type=text/plain",
		"X-Custom=value1",
		"x-custom=value2",
		"Server=rawhttp",
	}, names)

	// Set keeps the first position and drops the rest
	h.Set("X-CUSTOM", "new-value")
	names = names[:0]
	h.Each(func(name, value string) {
		names = append(names, name+"="+value)
	})
	assert.Equal(t, []string{
		"Content-Type=text/plain",
		"X-CUSTOM=new-value",
		"Server=rawhttp",
	}, names)

	h.Del("content-type")
	assert.False(t, h.Has("Content-Type"))
	assert.Equal(t, 2, h.Len())

	h.Set("Date", "today")
	assert.Equal(t, []string{"today"}, h.Values("date"))
	assert.Equal(t, 3, h.Len())
}

func TestHeaderClone(t *testing.T) {
	h := NewHeaders()
	h.Add("A", "1")
	c := h.Clone()
	c.Add("B", "2")

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, c.Len())

	_, ok := h.Get("non-existent")
	assert.False(t, ok)
}
