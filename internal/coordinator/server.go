// Package coordinator implements the server side of the vehicle access
// protocol: it accepts agent connections, reads operation frames and
// dispatches them to the face matcher or forwards them to the account
// service.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"rideshare/internal/protocol"
	"rideshare/internal/recognition"
	"rideshare/pkg/client"
	"rideshare/pkg/config"
)

type Server struct {
	cfg     *config.Config
	matcher *recognition.Matcher
	account *client.HttpClient
	blob    protocol.BlobCodec

	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(cfg *config.Config, matcher *recognition.Matcher, account *client.HttpClient) *Server {
	var blob protocol.BlobCodec
	if cfg.BlobFraming == config.FramingLength {
		blob = protocol.NewLengthCodec(cfg.MaxBlobSize)
	} else {
		blob = protocol.NewSentinelCodec(cfg.SocketBufferSize)
	}

	return &Server{
		cfg:     cfg,
		matcher: matcher,
		account: account,
		blob:    blob,
	}
}

// Listen binds the coordinator port. Split from Serve so callers (and
// tests) can learn the bound address before accepting.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", ":"+s.cfg.SocketPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.cfg.SocketPort, err)
	}
	s.listener = listener
	s.cfg.Log.Info("Coordinator listening", "addr", listener.Addr().String())
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts agent connections until the context is cancelled, running
// each session on its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.cfg.Log.Error("Accept failed", "error", err)
			continue
		}

		s.cfg.Log.Info("Agent connected", "remote_addr", conn.RemoteAddr().String())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			sess := newSession(conn, s)
			sess.run(ctx)
		}()
	}
}
