package protocol

import (
	"fmt"
	"net"
)

// Send writes the payload as a single transport write. Short frames
// (operation names, JSON bodies, acks) are expected to fit in the peer's
// one-read buffer; there is no length prefix on this path.
func Send(conn net.Conn, payload []byte) error {
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("frame write failed: %w", err)
	}
	return nil
}

// Receive performs one read of up to maxSize bytes and returns whatever
// arrived. A closed peer surfaces as io.EOF with no data.
func Receive(conn net.Conn, maxSize int) ([]byte, error) {
	buf := make([]byte, maxSize)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}
