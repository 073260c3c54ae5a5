package main

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
	"github.com/Brownie44l1/rawhttp/internal/router"
	"github.com/Brownie44l1/rawhttp/internal/server"
)

func mustParse(t *testing.T, raw string) *request.Request {
	t.Helper()
	req, err := request.Parse([]byte(raw))
	require.NoError(t, err)
	return req
}

func TestHandleSearch(t *testing.T) {
	resp := handleSearch(mustParse(t, "GET /search?q=hello%20world&tag=a&tag=b HTTP/1.1\r\n\r\n"), nil)
	require.Equal(t, response.StatusOK, resp.Status)

	var got map[string][]string
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	assert.Equal(t, map[string][]string{"q": {"hello world"}, "tag": {"a", "b"}}, got)

	resp = handleSearch(mustParse(t, "GET /search?q=%zz HTTP/1.1\r\n\r\n"), nil)
	assert.Equal(t, response.StatusBadRequest, resp.Status)
}

func TestHandleEcho(t *testing.T) {
	resp := handleEcho(mustParse(t, "POST /echo HTTP/1.1\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi"), nil)
	assert.Equal(t, "hi", string(resp.Body))
	ct, _ := resp.Headers.Get("Content-Type")
	assert.Equal(t, "text/plain", ct)
}

func TestHandleGetUser(t *testing.T) {
	resp := handleGetUser(mustParse(t, "GET /users/7 HTTP/1.1\r\n\r\n"), router.Params{"id": "7"})

	var got map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	assert.Equal(t, "7", got["id"])
}

func TestHandleHealth(t *testing.T) {
	m := server.NewMetrics()
	m.RecordRequest(200, 0)

	resp := handleHealth(m)(mustParse(t, "GET /health HTTP/1.1\r\n\r\n"), nil)
	require.Equal(t, response.StatusOK, resp.Status)

	var got struct {
		Status string `json:"status"`
		Stats  struct {
			RequestsTotal int64 `json:"requests_total"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, int64(1), got.Stats.RequestsTotal)
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	setLevel(zerolog.Nop(), "warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	setLevel(zerolog.Nop(), "bogus")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
