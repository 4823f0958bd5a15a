package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"rideshare/internal/protocol"
	"rideshare/pkg/logger"
)

// session is the per-connection operation loop. It holds no business state
// beyond the live socket; every side effect lives in the delegated
// components.
type session struct {
	conn net.Conn
	srv  *Server
	log  *logger.Logger
}

func newSession(conn net.Conn, srv *Server) *session {
	return &session{
		conn: conn,
		srv:  srv,
		log:  srv.cfg.Log,
	}
}

// run reads operation frames until the agent disconnects. An unrecognized
// operation is logged and the loop continues; a transport failure ends the
// session.
func (s *session) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := protocol.Receive(s.conn, s.srv.cfg.SocketBufferSize)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Error("Failed to read operation frame", "error", err)
			} else {
				s.log.Info("Agent disconnected", "remote_addr", s.conn.RemoteAddr().String())
			}
			return
		}

		op := string(frame)
		if op == "" {
			s.log.Info("Agent disconnected", "remote_addr", s.conn.RemoteAddr().String())
			return
		}

		if err := s.dispatch(ctx, op); err != nil {
			s.log.Error("Operation aborted", "operation", op, "error", err)
			return
		}
	}
}

func (s *session) dispatch(ctx context.Context, op string) error {
	switch op {
	case protocol.OpLogin:
		s.log.Info("Login called")
		return s.forward(ctx, "/api/login", protocol.ServerErrorLogin())
	case protocol.OpLoginWithBluetooth:
		s.log.Info("Login with bluetooth called")
		return s.forward(ctx, "/api/login-bluetooth", protocol.ServerErrorLogin())
	case protocol.OpAddBluetooth:
		s.log.Info("Add bluetooth called")
		return s.forward(ctx, "/api/register-bluetooth", protocol.ServerErrorMessage())
	case protocol.OpChangeLockStatus:
		s.log.Info("Change lock status called")
		return s.changeLockStatus(ctx)
	case protocol.OpChangeCarLocation:
		s.log.Info("Change car location called")
		return s.forward(ctx, "/api/setlocation", protocol.ServerErrorMessage())
	case protocol.OpLoginWithFace:
		s.log.Info("Login with face called")
		return s.loginWithFace(ctx)
	case protocol.OpAddFace:
		s.log.Info("Add face called")
		return s.addFace(ctx)
	default:
		s.log.Warn("Invalid instruction", "operation", op)
		return nil
	}
}

// ack tells the agent the payload exchange may begin.
func (s *session) ack() error {
	return protocol.Send(s.conn, []byte(protocol.Ack))
}

// receivePayload reads the operation's payload frame, bounded by the
// configured read deadline when one is set. The deadline applies only
// inside an operation; waiting for the next operation never times out.
func (s *session) receivePayload() ([]byte, error) {
	if t := s.srv.cfg.SocketReadTimeout; t > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(t))
		defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()
	}
	return protocol.Receive(s.conn, s.srv.cfg.SocketBufferSize)
}

func (s *session) receiveBlob() ([]byte, error) {
	if t := s.srv.cfg.SocketReadTimeout; t > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(t))
		defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()
	}
	return s.srv.blob.ReceiveBlob(s.conn)
}

// forward relays a JSON payload to the account service and the service's
// JSON response back to the agent verbatim. An unreachable collaborator
// becomes the generic server-error body, never a transport error.
func (s *session) forward(ctx context.Context, path string, serverError []byte) error {
	if err := s.ack(); err != nil {
		return err
	}

	payload, err := s.receivePayload()
	if err != nil {
		return err
	}

	body := s.post(ctx, path, payload, serverError)
	return protocol.Send(s.conn, body)
}

func (s *session) post(ctx context.Context, path string, payload []byte, serverError []byte) []byte {
	resp, err := s.srv.account.POST(ctx, path, json.RawMessage(payload))
	if err != nil {
		s.log.Error("Account service unreachable", "path", path, "error", err)
		return serverError
	}
	return resp.Body
}

// changeLockStatus picks the collaborator endpoint from the payload's
// method field, then relays like any forwarded operation.
func (s *session) changeLockStatus(ctx context.Context) error {
	if err := s.ack(); err != nil {
		return err
	}

	payload, err := s.receivePayload()
	if err != nil {
		return err
	}

	var req protocol.LockStatusRequest
	if err := json.Unmarshal(payload, &req); err != nil ||
		(req.Method != protocol.MethodUnlock && req.Method != protocol.MethodReturn) {
		s.log.Warn("Invalid lock status payload")
		body, _ := json.Marshal(protocol.MessageResult{Message: "ERROR: Invalid lock status request"})
		return protocol.Send(s.conn, body)
	}

	body := s.post(ctx, "/api/"+req.Method, payload, protocol.ServerErrorMessage())
	return protocol.Send(s.conn, body)
}

func (s *session) loginWithFace(ctx context.Context) error {
	if err := s.ack(); err != nil {
		return err
	}

	blob, err := s.receiveBlob()
	if err != nil {
		return err
	}

	var payload protocol.FacePayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		s.log.Warn("Invalid face payload", "error", err)
		body, _ := json.Marshal(protocol.FaceMatchResult{})
		return protocol.Send(s.conn, body)
	}

	username, err := s.srv.matcher.Match(ctx, payload.Image)
	if err != nil {
		s.log.Warn("Face match failed", "error", err)
		username = ""
	}

	body, _ := json.Marshal(protocol.FaceMatchResult{Username: username})
	return protocol.Send(s.conn, body)
}

func (s *session) addFace(ctx context.Context) error {
	if err := s.ack(); err != nil {
		return err
	}

	blob, err := s.receiveBlob()
	if err != nil {
		return err
	}

	var payload protocol.FacePayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		s.log.Warn("Invalid face payload", "error", err)
		body, _ := json.Marshal(protocol.MessageResult{Message: "ERROR: Invalid face payload"})
		return protocol.Send(s.conn, body)
	}

	if err := s.srv.matcher.Enroll(ctx, payload.Username, payload.Image); err != nil {
		s.log.Error("Face enrollment failed", "username", payload.Username, "error", err)
		body, _ := json.Marshal(protocol.MessageResult{Message: "ERROR: Face could not be enrolled"})
		return protocol.Send(s.conn, body)
	}

	return protocol.Send(s.conn, []byte(protocol.Ack))
}
