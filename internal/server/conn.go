package server

import (
	"bytes"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
)

var (
	crlf    = []byte("\r\n")
	headEnd = []byte("\r\n\r\n")
)

// serveConn handles exactly one request on conn and closes it.
func (s *Server) serveConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log := s.logger.With().
		Str("conn_id", uuid.NewString()).
		Str("remote", remote).
		Logger()

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("close failed")
		}
	}()

	start := time.Now()
	req, err := s.readRequest(conn)

	var resp *response.Response
	switch {
	case err == nil:
		req.RemoteAddr = remote
		resp = s.handleRequest(req, log)
	case isParseError(err):
		s.metrics.ParseErrors.Add(1)
		log.Debug().Err(err).Msg("bad request")
		resp = s.handleBadRequest(err)
	case errors.Is(err, io.EOF):
		// peer connected and left without sending anything
		log.Debug().Msg("connection closed before request")
		return
	default:
		s.metrics.ConnErrors.Add(1)
		log.Warn().Err(err).Msg("read failed")
		return
	}

	headOnly := req != nil && req.Method == request.MethodHead
	n, err := s.writeResponse(conn, resp, headOnly)
	if err != nil {
		s.metrics.ConnErrors.Add(1)
		log.Warn().Err(err).Msg("write failed")
		return
	}

	duration := time.Since(start)
	s.metrics.RecordRequest(int(resp.Status), duration)

	ev := log.Info().Int("status", int(resp.Status)).Int64("bytes", n).Float64("duration_ms", durationMs(duration))
	if req != nil {
		ev = ev.Str("method", req.Method.String()).Str("path", truncate(req.Path))
	}
	ev.Msg("request handled")
}

// readRequest reads until a complete request is buffered, the parser rejects
// the bytes, or MaxRequestBytes would be exceeded. Reads never go past the cap
// or past the declared body, and the buffer is only parsed when the request
// line or the header block has just been completed.
func (s *Server) readRequest(conn net.Conn) (*request.Request, error) {
	chunk := s.pool.Get(s.cfg.ReadBufferSize)
	defer s.pool.Put(chunk)

	var (
		data     []byte
		scanned  int
		lineSeen bool
		need     = -1 // head plus declared body, once the head is parsed
	)
	for {
		limit := s.cfg.MaxRequestBytes
		if need >= 0 {
			limit = need
		}
		room := limit - len(data)
		if room <= 0 {
			return nil, errors.Wrapf(ErrRequestTooLarge, "%d bytes buffered", len(data))
		}
		buf := chunk
		if room < len(buf) {
			buf = chunk[:room]
		}

		if s.cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
				return nil, &ConnectionError{Op: "read", Err: err}
			}
		}

		n, rerr := conn.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)

			if need < 0 {
				from := max(scanned-3, 0)
				headDone := bytes.Contains(data[from:], headEnd)
				lineDone := !lineSeen && bytes.Contains(data[max(scanned-1, 0):], crlf)
				scanned = len(data)

				if headDone || lineDone {
					lineSeen = true
					req, headLen, err := request.ParseHead(data)
					if err != nil && !request.IsIncomplete(err) {
						return nil, err
					}
					if err == nil {
						need = headLen + int(max(req.ContentLength(), 0))
						if need > s.cfg.MaxRequestBytes {
							return nil, errors.Wrapf(ErrRequestTooLarge, "declared %d bytes", need)
						}
					}
				}
			}

			if need >= 0 && len(data) >= need {
				return request.Parse(data[:need])
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) && len(data) > 0 {
				return nil, errors.Wrap(request.ErrIncompleteRequest, "connection closed mid-request")
			}
			return nil, &ConnectionError{Op: "read", Err: rerr}
		}
	}
}

// handleRequest wraps handler call with panic recovery
func (s *Server) handleRequest(req *request.Request, log zerolog.Logger) (resp *response.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.HandlerPanics.Add(1)
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Str("path", truncate(req.Path)).
				Msg("handler panic")
			resp = s.handle500()
		}
	}()

	resp = s.handler.Handle(req)
	if resp == nil {
		log.Error().Str("path", truncate(req.Path)).Msg("handler returned no response")
		return s.handle500()
	}
	return resp
}

// handleBadRequest builds the 400 sent for unparseable input
func (s *Server) handleBadRequest(err error) *response.Response {
	return response.BadRequest(err)
}

// handle500 builds the response for a failed handler
func (s *Server) handle500() *response.Response {
	return response.Error(response.StatusInternalServerError, "")
}

func (s *Server) writeResponse(conn net.Conn, resp *response.Response, headOnly bool) (int64, error) {
	if s.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return 0, &ConnectionError{Op: "write", Err: err}
		}
	}

	var (
		n   int64
		err error
	)
	if headOnly {
		n, err = resp.WriteHeadTo(conn)
	} else {
		n, err = resp.WriteTo(conn)
	}
	if err != nil {
		return n, &ConnectionError{Op: "write", Err: err}
	}
	return n, nil
}
