package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
	"github.com/Brownie44l1/rawhttp/internal/server"
)

// tcplistener prints every request it receives and echoes the dump back to
// the client. Useful for poking the parser with curl or nc.
func main() {
	addr := flag.String("addr", ":42069", "listen address")
	flag.Parse()

	log, err := server.NewLogger(os.Stdout, "debug", "console")
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("create logger")
	}

	cfg := server.DefaultConfig()
	cfg.Addr = *addr

	srv := server.New(cfg, server.HandlerFunc(func(req *request.Request) *response.Response {
		dump := dumpRequest(req)
		fmt.Print(dump)
		return response.Text(response.StatusOK, dump)
	}), server.WithLogger(log))

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func dumpRequest(req *request.Request) string {
	var b strings.Builder

	b.WriteString("Request line:\n")
	fmt.Fprintf(&b, "- Method: %s\n", req.Method)
	fmt.Fprintf(&b, "- Target: %s\n", req.Target())
	fmt.Fprintf(&b, "- Version: %s\n", req.Proto)

	if req.Query != nil && req.Query.Len() > 0 {
		b.WriteString("Query:\n")
		for _, key := range req.Query.Keys() {
			v, _ := req.Query.Get(key)
			fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(v.All(), ", "))
		}
	}

	b.WriteString("Headers:\n")
	req.Headers.Each(func(name, value string) {
		fmt.Fprintf(&b, "- %s: %s\n", name, value)
	})

	b.WriteString("Body:\n")
	b.Write(req.Body)
	b.WriteString("\n")
	return b.String()
}
