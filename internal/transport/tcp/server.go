package tcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/rocketscienceinc/turnrelay/internal/metrics"
)

const (
	readChunkSize   = 1024
	maxAcceptDelay  = time.Second
	baseAcceptDelay = 5 * time.Millisecond
)

// Server accepts relay connections and serves each one on its own goroutine.
// Connections are neither counted nor capped, and reads have no deadline.
type Server struct {
	logger *slog.Logger
	router *Router
}

func New(logger *slog.Logger, manager gameManager) *Server {
	return &Server{
		logger: logger,
		router: NewRouter(logger, manager),
	}
}

// Start binds addr and serves it until ctx is cancelled.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	that.logger.Info("relay server listening", "addr", listener.Addr().String())

	return that.Serve(ctx, listener)
}

// Serve accepts on listener until ctx is cancelled, then closes it and
// returns nil. It never waits for connection handlers.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve")

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}

		_ = listener.Close()
	}()

	var delay time.Duration

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}

			if delay == 0 {
				delay = baseAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}

			log.Error("accept failed", "error", err, "retry_in", delay)
			time.Sleep(delay)

			continue
		}

		delay = 0

		go that.handleConnection(ctx, conn)
	}
}

// handleConnection owns conn and always closes it, whatever ends the loop.
func (that *Server) handleConnection(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "handleConnection", "remote_addr", conn.RemoteAddr().String())

	metrics.OpenConnections.Inc()
	log.Info("client connected")

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("connection handler panicked", "panic", fmt.Sprint(rec))
		}

		if err := conn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}

		metrics.OpenConnections.Dec()
		log.Info("client disconnected")
	}()

	if err := that.serveConn(ctx, conn); err != nil {
		log.Error("connection terminated", "error", err)
	}
}

// serveConn reads until the buffer holds a newline, treats everything read so
// far as one request and answers it, then starts over on the same stream.
// A request line split over several reads is reassembled. Several requests
// arriving in one read are framed as one, and a read whose data begins with
// a blank line is malformed and closes the connection; clients send one
// request and wait for its response. EOF ends the loop without an error.
func (that *Server) serveConn(ctx context.Context, conn io.ReadWriter) error {
	var buf bytes.Buffer

	chunk := make([]byte, readChunkSize)

	for {
		n, readErr := conn.Read(chunk)
		buf.Write(chunk[:n])

		if bytes.IndexByte(buf.Bytes(), '\n') >= 0 {
			raw := buf.String()
			buf.Reset()

			req, err := ParseRequest(raw)
			if err != nil {
				return fmt.Errorf("failed to parse request: %w", err)
			}

			resp := that.router.Dispatch(ctx, req)
			if _, err = conn.Write(resp.Bytes()); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}

			return fmt.Errorf("failed to read request: %w", readErr)
		}
	}
}
