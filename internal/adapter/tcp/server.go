package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"bankline/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server accepts connections and runs one Session per connection. Every
// session shares the single ledger; sessions never share anything else.
type Server struct {
	addr          string
	ledger        ports.Ledger
	readTimeout   time.Duration
	maxFrameBytes uint32
	log           zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a server listening on addr once started.
func NewServer(addr string, ledger ports.Ledger, readTimeout time.Duration, maxFrameBytes uint32, log zerolog.Logger) *Server {
	return &Server{
		addr:          addr,
		ledger:        ledger,
		readTimeout:   readTimeout,
		maxFrameBytes: maxFrameBytes,
		log:           log,
	}
}

// ListenAndServe blocks accepting connections until ctx is cancelled, then
// stops accepting and waits for active sessions to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		sessionID := uuid.NewString()
		sessionLog := s.log.With().
			Str("session_id", sessionID).
			Str("remote", conn.RemoteAddr().String()).
			Logger()
		sessionLog.Info().Msg("client connected")

		sess := NewSession(conn, s.ledger, sessionLog,
			WithReadTimeout(s.readTimeout),
			WithMaxFrameBytes(s.maxFrameBytes),
		)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = sess.Run(ctx)
		}()
	}

	s.wg.Wait()
	s.log.Info().Msg("all sessions drained")
	return nil
}

// Addr returns the bound listen address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
