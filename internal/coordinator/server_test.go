package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rideshare/internal/agent"
	"rideshare/internal/protocol"
	"rideshare/internal/recognition"
	"rideshare/pkg/client"
	"rideshare/pkg/config"
	"rideshare/pkg/logger"
	"rideshare/pkg/model"
)

type memoryEncodingRepository struct {
	encodings []*model.FaceEncoding
}

func (m *memoryEncodingRepository) Insert(ctx context.Context, encoding *model.FaceEncoding) error {
	m.encodings = append(m.encodings, encoding)
	return nil
}

func (m *memoryEncodingRepository) FindAll(ctx context.Context) ([]*model.FaceEncoding, error) {
	return m.encodings, nil
}

// byteSumEncoder gives every image a deterministic 1-D vector so identical
// images always match and distinct images never do.
type byteSumEncoder struct{}

func (byteSumEncoder) Encode(img []byte) ([]float64, error) {
	if len(img) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	var sum float64
	for _, b := range img {
		sum += float64(b)
	}
	return []float64{sum}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SocketPort:       "0",
		SocketBufferSize: 4096,
		BlobFraming:      config.FramingSentinel,
		MaxBlobSize:      config.DefaultMaxBlobSize,
		MatchThreshold:   0.5,
		Log:              logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

// startServer runs a coordinator on a random port against the given
// account service URL and returns a connected agent client.
func startServer(t *testing.T, accountURL string) *agent.Client {
	t.Helper()

	cfg := testConfig()
	matcher := recognition.NewMatcher(&memoryEncodingRepository{}, byteSumEncoder{}, cfg)

	srv := NewServer(cfg, matcher, client.NewHttpClient(accountURL))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Serve(ctx) }()

	agentCfg := testConfig()
	agentCfg.SocketPort = fmt.Sprintf("%d", srv.Addr().(*net.TCPAddr).Port)

	c := agent.NewClient(agentCfg, "127.0.0.1")
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func stubAccountService(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "alice" || req.Password != "hunter2-plus" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"user":null,"message":{"user":["Incorrect password."]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"username":"alice","role":"user"},"message":"Logged in successfully"}`))
	})
	mux.HandleFunc("/api/unlock", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Car has been unlocked"}`))
	})
	mux.HandleFunc("/api/return", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Car has been returned"}`))
	})
	mux.HandleFunc("/api/setlocation", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.LocationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"message":"Location of car %d updated"}`, req.CarID)))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoginForwardedToAccountService(t *testing.T) {
	stub := stubAccountService(t)
	c := startServer(t, stub.URL)

	result, err := c.Login("alice", "hunter2-plus")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User == nil || result.User.Username != "alice" {
		t.Fatalf("user = %+v", result.User)
	}
	if !strings.Contains(string(result.Message), "Logged in successfully") {
		t.Errorf("message = %s", result.Message)
	}

	// A failed login relays the collaborator's body untouched.
	result, err = c.Login("alice", "wrong-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User != nil {
		t.Errorf("user = %+v, want nil", result.User)
	}
	if !strings.Contains(string(result.Message), "Incorrect password.") {
		t.Errorf("message = %s", result.Message)
	}
}

func TestChangeLockStatusRoutesByMethod(t *testing.T) {
	stub := stubAccountService(t)
	c := startServer(t, stub.URL)

	message, err := c.ChangeLockStatus("alice", 7, protocol.MethodUnlock)
	if err != nil {
		t.Fatalf("ChangeLockStatus(unlock) failed: %v", err)
	}
	if message != "Car has been unlocked" {
		t.Errorf("message = %q", message)
	}

	message, err = c.ChangeLockStatus("alice", 7, protocol.MethodReturn)
	if err != nil {
		t.Fatalf("ChangeLockStatus(return) failed: %v", err)
	}
	if message != "Car has been returned" {
		t.Errorf("message = %q", message)
	}
}

func TestSetLocationForwarded(t *testing.T) {
	stub := stubAccountService(t)
	c := startServer(t, stub.URL)

	message, err := c.SetLocation(3, "Building 14 car park")
	if err != nil {
		t.Fatalf("SetLocation failed: %v", err)
	}
	if message != "Location of car 3 updated" {
		t.Errorf("message = %q", message)
	}
}

func TestFaceEnrollmentAndLogin(t *testing.T) {
	stub := stubAccountService(t)
	c := startServer(t, stub.URL)

	aliceFace := []byte("alice face image bytes")

	if err := c.AddFace("alice", aliceFace); err != nil {
		t.Fatalf("AddFace failed: %v", err)
	}

	result, err := c.LoginWithFace(aliceFace)
	if err != nil {
		t.Fatalf("LoginWithFace failed: %v", err)
	}
	if result.Username != "alice" {
		t.Errorf("matched %q, want alice", result.Username)
	}

	result, err = c.LoginWithFace([]byte("a complete stranger"))
	if err != nil {
		t.Fatalf("LoginWithFace failed: %v", err)
	}
	if result.Username != "" {
		t.Errorf("matched %q, want no match", result.Username)
	}
}

func TestAccountServiceUnreachable(t *testing.T) {
	// A dead collaborator becomes the generic server-error body, not a
	// dropped connection.
	c := startServer(t, "http://127.0.0.1:1")

	result, err := c.Login("alice", "hunter2-plus")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User != nil {
		t.Errorf("user = %+v, want nil", result.User)
	}
	if !strings.Contains(string(result.Message), "A server error occured.") {
		t.Errorf("message = %s", result.Message)
	}
}

func TestUnknownOperationKeepsSessionAlive(t *testing.T) {
	stub := stubAccountService(t)

	cfg := testConfig()
	matcher := recognition.NewMatcher(&memoryEncodingRepository{}, byteSumEncoder{}, cfg)
	srv := NewServer(cfg, matcher, client.NewHttpClient(stub.URL))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Serve(ctx) }()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// An unknown operation draws no reply and must not end the session.
	if err := protocol.Send(conn, []byte("Self Destruct")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Give the server a moment so the two frames arrive as separate reads.
	time.Sleep(100 * time.Millisecond)

	if err := protocol.Send(conn, []byte(protocol.OpLogin)); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	ack, err := protocol.Receive(conn, cfg.SocketBufferSize)
	if err != nil {
		t.Fatalf("no acknowledgement after unknown operation: %v", err)
	}
	if string(ack) != protocol.Ack {
		t.Fatalf("acknowledgement = %q", ack)
	}
}
