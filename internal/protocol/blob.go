package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Sentinel terminates a chunked blob on the compatibility wire format. The
// sequence is fixed by the deployed agents and must not appear inside a
// well-formed payload.
var Sentinel = []byte{
	0x80, 0x03, 0x58, 0x08, 0x00, 0x00, 0x00,
	'E', 'N', 'D', 'I', 'M', 'A', 'G', 'E',
	0x71, 0x00, 0x2e,
}

var (
	// ErrSentinelInPayload is returned when a payload cannot be sent on the
	// sentinel framing because it contains the terminator sequence.
	ErrSentinelInPayload = errors.New("payload contains the sentinel sequence")

	// ErrBlobTooLarge is returned by the length-prefixed codec when a peer
	// announces a body beyond the configured maximum.
	ErrBlobTooLarge = errors.New("blob exceeds maximum size")
)

// BlobCodec moves payloads that may exceed a single read. Implementations
// differ only in how the end of the payload is marked.
type BlobCodec interface {
	SendBlob(conn net.Conn, payload []byte) error
	ReceiveBlob(conn net.Conn) ([]byte, error)
}

// SentinelCodec reproduces the historical wire format: the payload is
// written whole, followed by the sentinel; the receiver accumulates
// fixed-size chunks until the sentinel shows up. It exists for
// compatibility with agents already in the field; new deployments should
// prefer LengthCodec.
type SentinelCodec struct {
	// ChunkSize is the receive buffer size per read.
	ChunkSize int
}

func NewSentinelCodec(chunkSize int) *SentinelCodec {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &SentinelCodec{ChunkSize: chunkSize}
}

func (c *SentinelCodec) SendBlob(conn net.Conn, payload []byte) error {
	if bytes.Contains(payload, Sentinel) {
		return ErrSentinelInPayload
	}
	if len(payload) > 0 {
		if _, err := conn.Write(payload); err != nil {
			return fmt.Errorf("blob write failed: %w", err)
		}
	}
	if _, err := conn.Write(Sentinel); err != nil {
		return fmt.Errorf("blob terminator write failed: %w", err)
	}
	return nil
}

// ReceiveBlob loops reading chunks and scanning for the sentinel. The scan
// restarts a sentinel-length window before the newest chunk so a terminator
// split across a chunk boundary is still found. If the sentinel never
// arrives the loop blocks until the transport reports an error.
func (c *SentinelCodec) ReceiveBlob(conn net.Conn) ([]byte, error) {
	var data []byte
	chunk := make([]byte, c.ChunkSize)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			scanFrom := len(data) - len(Sentinel) + 1
			if scanFrom < 0 {
				scanFrom = 0
			}
			data = append(data, chunk[:n]...)

			if idx := bytes.Index(data[scanFrom:], Sentinel); idx >= 0 {
				return data[:scanFrom+idx], nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("connection closed before blob terminator: %w", io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("blob read failed: %w", err)
		}
	}
}

// LengthCodec frames blobs with a 4-byte big-endian size prefix. Both peers
// must agree on the framing; it is not wire-compatible with SentinelCodec.
type LengthCodec struct {
	// MaxSize bounds the announced body length on receive.
	MaxSize int
}

func NewLengthCodec(maxSize int) *LengthCodec {
	if maxSize <= 0 {
		maxSize = 16 * 1024 * 1024
	}
	return &LengthCodec{MaxSize: maxSize}
}

func (c *LengthCodec) SendBlob(conn net.Conn, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := conn.Write(header[:]); err != nil {
		return fmt.Errorf("blob header write failed: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("blob write failed: %w", err)
	}
	return nil
}

func (c *LengthCodec) ReceiveBlob(conn net.Conn) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return nil, fmt.Errorf("blob header read failed: %w", err)
	}

	// Unsigned compare; int(uint32) can wrap negative on 32-bit platforms.
	announced := uint64(binary.BigEndian.Uint32(header[:]))
	if announced > uint64(c.MaxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrBlobTooLarge, announced, c.MaxSize)
	}

	payload := make([]byte, int(announced))
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, fmt.Errorf("blob read failed: %w", err)
	}
	return payload, nil
}
