// Package client talks to a running screengrab pipe server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/breeze-rmm/screengrab/internal/pipeserve"
)

// A capture can legitimately take the server's full 30s budget, so the
// default wait is slightly longer.
const defaultTimeout = 35 * time.Second

type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Display struct {
	DeviceName   string `json:"deviceName"`
	Bounds       Region `json:"bounds"`
	Rotation     int    `json:"rotation"`
	AdapterIndex int    `json:"adapterIndex"`
	OutputIndex  int    `json:"outputIndex"`
	Primary      bool   `json:"primary"`
}

type CaptureResult struct {
	Display    string `json:"display"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Rotation   int    `json:"rotation"`
	JPEG       []byte `json:"jpeg"`
	DurationMs int64  `json:"durationMs"`
}

type Status struct {
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	CapturesServed uint64 `json:"capturesServed"`
	CapturesFailed uint64 `json:"capturesFailed"`
	RateLimited    uint64 `json:"rateLimited"`
	Connections    int    `json:"connections"`
}

type captureRequest struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
	Quality int `json:"quality,omitempty"`
}

type displayList struct {
	Displays []Display `json:"displays"`
}

// Client is a synchronous pipe-server client. One request is in flight
// at a time; concurrent calls are serialized.
type Client struct {
	conn   *pipeserve.Conn
	mu     sync.Mutex
	nextID uint64
}

// Dial connects to the pipe server named pipeName on this machine.
func Dial(pipeName string, timeout time.Duration) (*Client, error) {
	endpoint := pipeserve.Endpoint(pipeName)
	raw, err := dial(endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	return NewFromConn(raw), nil
}

// NewFromConn wraps an established connection.
func NewFromConn(raw net.Conn) *Client {
	return &Client{conn: pipeserve.NewConn(raw)}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping checks that the server is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.roundTrip(ctx, pipeserve.TypePing, nil, pipeserve.TypePong)
	return err
}

// Capture grabs one screen region as JPEG. Quality 0 uses the server's
// configured default.
func (c *Client) Capture(ctx context.Context, region Region, quality int) (*CaptureResult, error) {
	env, err := c.roundTrip(ctx, pipeserve.TypeCaptureRequest, captureRequest{
		X:       region.X,
		Y:       region.Y,
		Width:   region.Width,
		Height:  region.Height,
		Quality: quality,
	}, pipeserve.TypeCaptureResult)
	if err != nil {
		return nil, err
	}

	var res CaptureResult
	if err := json.Unmarshal(env.Payload, &res); err != nil {
		return nil, fmt.Errorf("failed to decode capture result: %w", err)
	}
	return &res, nil
}

// Displays lists the displays attached to the server's session.
func (c *Client) Displays(ctx context.Context) ([]Display, error) {
	env, err := c.roundTrip(ctx, pipeserve.TypeListDisplays, nil, pipeserve.TypeDisplayList)
	if err != nil {
		return nil, err
	}

	var list displayList
	if err := json.Unmarshal(env.Payload, &list); err != nil {
		return nil, fmt.Errorf("failed to decode display list: %w", err)
	}
	return list.Displays, nil
}

// Status reports the server's health counters.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	env, err := c.roundTrip(ctx, pipeserve.TypeStatusRequest, nil, pipeserve.TypeStatusReport)
	if err != nil {
		return nil, err
	}

	var st Status
	if err := json.Unmarshal(env.Payload, &st); err != nil {
		return nil, fmt.Errorf("failed to decode status report: %w", err)
	}
	return &st, nil
}

func (c *Client) roundTrip(ctx context.Context, msgType string, payload any, wantType string) (*pipeserve.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := fmt.Sprintf("req-%d", c.nextID)

	if err := c.conn.SendTyped(id, msgType, payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	deadline := time.Now().Add(defaultTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)

	env, err := c.conn.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	if env.ID != id {
		return nil, fmt.Errorf("reply ID %s does not match request %s", env.ID, id)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("server: %s", env.Error)
	}
	if env.Type != wantType {
		return nil, fmt.Errorf("unexpected reply type %s", env.Type)
	}
	return env, nil
}
