package agent

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"

	"rideshare/internal/protocol"
	"rideshare/pkg/config"
	"rideshare/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		SocketPort:       "0",
		SocketBufferSize: 4096,
		BlobFraming:      config.FramingSentinel,
		MaxBlobSize:      config.DefaultMaxBlobSize,
		Log:              logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	c := NewClient(testConfig(), "localhost")

	if _, err := c.Login("alice", "hunter2-plus"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Login before Connect: %v", err)
	}
	if _, err := c.ChangeLockStatus("alice", 1, protocol.MethodUnlock); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ChangeLockStatus before Connect: %v", err)
	}
	if err := c.AddFace("alice", []byte("img")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("AddFace before Connect: %v", err)
	}
}

func TestDisconnectResetsConnection(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	cfg := testConfig()
	cfg.SocketPort = strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)

	c := NewClient(cfg, "127.0.0.1")
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if _, err := c.Login("alice", "hunter2-plus"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Login after Disconnect: %v", err)
	}

	// Disconnecting twice is harmless.
	if err := c.Disconnect(); err != nil {
		t.Errorf("second Disconnect: %v", err)
	}
}

func TestChangeLockStatusRejectsUnknownMethod(t *testing.T) {
	c := NewClient(testConfig(), "localhost")

	if _, err := c.ChangeLockStatus("alice", 1, "explode"); err == nil {
		t.Error("expected error for unknown method")
	}
}
