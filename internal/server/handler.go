package server

import (
	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
)

// Handler turns a parsed request into a response. One Handler serves every
// connection concurrently, so any state it mutates needs its own locking.
type Handler interface {
	Handle(req *request.Request) *response.Response
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(req *request.Request) *response.Response

func (f HandlerFunc) Handle(req *request.Request) *response.Response {
	return f(req)
}
