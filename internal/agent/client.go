// Package agent implements the in-vehicle client side of the vehicle
// access protocol. A Client drives one blocking operation at a time over a
// single TCP connection; retries are the calling UI's concern.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"rideshare/internal/protocol"
	"rideshare/pkg/config"
)

// ErrNotConnected is returned by every business method once the client is
// disconnected (or was never connected).
var ErrNotConnected = errors.New("not connected to the coordinator")

type Client struct {
	host       string
	port       string
	bufferSize int
	blob       protocol.BlobCodec

	conn net.Conn
}

func NewClient(cfg *config.Config, host string) *Client {
	var blob protocol.BlobCodec
	if cfg.BlobFraming == config.FramingLength {
		blob = protocol.NewLengthCodec(cfg.MaxBlobSize)
	} else {
		blob = protocol.NewSentinelCodec(cfg.SocketBufferSize)
	}

	return &Client{
		host:       host,
		port:       cfg.SocketPort,
		bufferSize: cfg.SocketBufferSize,
		blob:       blob,
	}
}

// Connect dials the coordinator. A failure is fatal for this attempt; the
// client performs no automatic retry.
func (c *Client) Connect() error {
	conn, err := net.Dial("tcp", net.JoinHostPort(c.host, c.port))
	if err != nil {
		return fmt.Errorf("failed to connect to coordinator: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// beginOperation sends the operation name and waits for the coordinator's
// acknowledgement.
func (c *Client) beginOperation(op string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := protocol.Send(c.conn, []byte(op)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ack, err := protocol.Receive(c.conn, c.bufferSize)
	if err != nil {
		return fmt.Errorf("%s: waiting for acknowledgement: %w", op, err)
	}
	if string(ack) != protocol.Ack {
		return fmt.Errorf("%s: unexpected acknowledgement %q", op, ack)
	}
	return nil
}

// exchange runs one full text operation: name, ack, JSON payload, JSON
// result decoded into out.
func (c *Client) exchange(op string, payload any, out any) error {
	if err := c.beginOperation(op); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: failed to encode payload: %w", op, err)
	}
	if err := protocol.Send(c.conn, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := protocol.Receive(c.conn, c.bufferSize)
	if err != nil {
		return fmt.Errorf("%s: waiting for result: %w", op, err)
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", op, err)
	}
	return nil
}

func (c *Client) Login(username, password string) (*protocol.LoginResult, error) {
	var result protocol.LoginResult
	err := c.exchange(protocol.OpLogin, protocol.LoginRequest{
		Username: username,
		Password: password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) LoginWithBluetooth(macAddress string) (*protocol.LoginResult, error) {
	var result protocol.LoginResult
	err := c.exchange(protocol.OpLoginWithBluetooth, protocol.BluetoothLoginRequest{
		MACAddress: macAddress,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AddBluetooth(username, macAddress string) (string, error) {
	var result protocol.MessageResult
	err := c.exchange(protocol.OpAddBluetooth, protocol.RegisterBluetoothRequest{
		Username:   username,
		MACAddress: macAddress,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// ChangeLockStatus requests an unlock or return transition and returns the
// coordinator's message.
func (c *Client) ChangeLockStatus(username string, carID int, method string) (string, error) {
	if method != protocol.MethodUnlock && method != protocol.MethodReturn {
		return "", fmt.Errorf("unknown lock method %q", method)
	}

	var result protocol.MessageResult
	err := c.exchange(protocol.OpChangeLockStatus, protocol.LockStatusRequest{
		Username: username,
		CarID:    carID,
		Method:   method,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

func (c *Client) SetLocation(carID int, location string) (string, error) {
	var result protocol.MessageResult
	err := c.exchange(protocol.OpChangeCarLocation, protocol.LocationRequest{
		CarID:    carID,
		Location: location,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// LoginWithFace ships the probe image as a chunked blob and returns the
// matched identity, empty when the coordinator knows no such face.
func (c *Client) LoginWithFace(image []byte) (*protocol.FaceMatchResult, error) {
	if err := c.beginOperation(protocol.OpLoginWithFace); err != nil {
		return nil, err
	}

	if err := c.sendFacePayload(protocol.FacePayload{Image: image}); err != nil {
		return nil, fmt.Errorf("%s: %w", protocol.OpLoginWithFace, err)
	}

	frame, err := protocol.Receive(c.conn, c.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("%s: waiting for result: %w", protocol.OpLoginWithFace, err)
	}

	var result protocol.FaceMatchResult
	if err := json.Unmarshal(frame, &result); err != nil {
		return nil, fmt.Errorf("%s: failed to decode result: %w", protocol.OpLoginWithFace, err)
	}
	return &result, nil
}

// AddFace enrolls an image for the user and waits for the coordinator's
// completion acknowledgement.
func (c *Client) AddFace(username string, image []byte) error {
	if err := c.beginOperation(protocol.OpAddFace); err != nil {
		return err
	}

	if err := c.sendFacePayload(protocol.FacePayload{Username: username, Image: image}); err != nil {
		return fmt.Errorf("%s: %w", protocol.OpAddFace, err)
	}

	frame, err := protocol.Receive(c.conn, c.bufferSize)
	if err != nil {
		return fmt.Errorf("%s: waiting for completion: %w", protocol.OpAddFace, err)
	}
	if string(frame) == protocol.Ack {
		return nil
	}

	var result protocol.MessageResult
	if err := json.Unmarshal(frame, &result); err != nil {
		return fmt.Errorf("%s: unexpected response %q", protocol.OpAddFace, frame)
	}
	return fmt.Errorf("%s: %s", protocol.OpAddFace, result.Message)
}

func (c *Client) sendFacePayload(payload protocol.FacePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode face payload: %w", err)
	}
	return c.blob.SendBlob(c.conn, body)
}
