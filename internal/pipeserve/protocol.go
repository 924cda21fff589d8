// Package pipeserve answers capture requests from local clients over a
// named pipe (Windows) or unix socket. The transport ACL is the trust
// boundary: only SYSTEM and interactively logged-on users can open the
// pipe, so messages are framed and sequenced but not signed.
package pipeserve

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/screengrab/internal/capture"
)

// Message type constants.
const (
	TypePing           = "ping"
	TypePong           = "pong"
	TypeCaptureRequest = "capture_request"
	TypeCaptureResult  = "capture_result"
	TypeListDisplays   = "list_displays"
	TypeDisplayList    = "display_list"
	TypeStatusRequest  = "status_request"
	TypeStatusReport   = "status_report"
	TypeError          = "error"
)

// MaxMessageSize caps one framed message (16MB). A full 4K JPEG is
// around 2MB; base64 expansion still leaves headroom.
const MaxMessageSize = 16 * 1024 * 1024

// Envelope is the wire-format wrapper for all pipe messages.
type Envelope struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// CaptureRequest asks the server for one region capture.
type CaptureRequest struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
	Quality int `json:"quality,omitempty"`
}

// CaptureResult carries the encoded capture back to the client.
type CaptureResult struct {
	Display    string `json:"display"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Rotation   int    `json:"rotation"`
	JPEG       []byte `json:"jpeg"`
	DurationMs int64  `json:"durationMs"`
}

// DisplayList enumerates the attached displays.
type DisplayList struct {
	Displays []capture.Display `json:"displays"`
}

// StatusReport describes the server's health.
type StatusReport struct {
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	CapturesServed uint64 `json:"capturesServed"`
	CapturesFailed uint64 `json:"capturesFailed"`
	RateLimited    uint64 `json:"rateLimited"`
	Connections    int    `json:"connections"`
}

// Conn wraps a net.Conn with length-prefixed JSON framing and sequence
// number validation.
type Conn struct {
	conn    net.Conn
	sendSeq atomic.Uint64
	recvSeq atomic.Uint64
	mu      sync.Mutex // serializes writes
}

// NewConn wraps a raw connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Send marshals an Envelope and writes it as [4-byte BE length][JSON].
// The sequence number is set automatically.
func (c *Conn) Send(env *Envelope) error {
	env.Seq = c.sendSeq.Add(1)

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("pipeserve: marshal envelope: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("pipeserve: message too large: %d > %d", len(data), MaxMessageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := c.conn.Write(header); err != nil {
		return fmt.Errorf("pipeserve: write header: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("pipeserve: write payload: %w", err)
	}
	return nil
}

// Recv reads a length-prefixed JSON message and validates the sequence.
func (c *Conn) Recv() (*Envelope, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("pipeserve: read header: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length > uint32(MaxMessageSize) {
		return nil, fmt.Errorf("pipeserve: message too large: %d > %d", length, MaxMessageSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("pipeserve: zero-length message")
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return nil, fmt.Errorf("pipeserve: read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("pipeserve: unmarshal envelope: %w", err)
	}

	// Sequence numbers must be strictly increasing per direction.
	prevSeq := c.recvSeq.Load()
	if env.Seq <= prevSeq && prevSeq > 0 {
		return nil, fmt.Errorf("pipeserve: sequence number %d <= last %d (replay/duplicate)", env.Seq, prevSeq)
	}
	c.recvSeq.Store(env.Seq)

	return &env, nil
}

// SendTyped wraps a typed payload into an Envelope and sends it.
func (c *Conn) SendTyped(id, msgType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("pipeserve: marshal payload: %w", err)
		}
		raw = data
	}
	return c.Send(&Envelope{ID: id, Type: msgType, Payload: raw})
}

// SendError sends an error envelope.
func (c *Conn) SendError(id, msgType, errMsg string) error {
	return c.Send(&Envelope{ID: id, Type: msgType, Error: errMsg})
}
