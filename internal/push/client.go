// Package push maintains a WebSocket connection to a collection server,
// executes capture commands it sends, and streams encoded regions back.
package push

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"

	"github.com/breeze-rmm/screengrab/internal/logging"
	"github.com/breeze-rmm/screengrab/internal/secmem"
)

var log = logging.L("push")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFactor   = 0.3

	frameTypeCapture = 0x01
	requestIDLen     = 36
)

// Config holds push client configuration. The token lives in secure
// memory for the life of the connection; it is revealed only while
// building the dial URL.
type Config struct {
	ServerURL string
	SourceID  string
	AuthToken *secmem.SecureString
	ProxyAddr string // socks5 host:port, empty for a direct connection
}

// Command represents a command received from the server.
type Command struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// CommandResult is the reply for one command.
type CommandResult struct {
	Type       string `json:"type"`
	CommandID  string `json:"commandId"`
	Status     string `json:"status"` // completed, failed
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`

	// Frame, when set, is pushed as a binary message alongside the JSON
	// result. Never part of the JSON payload; receivers correlate the
	// two by request ID.
	Frame []byte `json:"-"`
}

// CommandHandler processes commands received from the server.
type CommandHandler func(cmd Command) CommandResult

// Client manages the WebSocket connection to the collection server.
type Client struct {
	config     *Config
	conn       *websocket.Conn
	connMu     sync.RWMutex
	cmdHandler CommandHandler
	done       chan struct{}
	sendChan   chan []byte
	frameChan  chan []byte
	stopOnce   sync.Once
	isRunning  bool
	runningMu  sync.RWMutex
}

// New creates a push client. Start blocks, so callers run it on its own
// goroutine or as the command's foreground loop.
func New(cfg *Config, handler CommandHandler) *Client {
	return &Client{
		config:     cfg,
		cmdHandler: handler,
		done:       make(chan struct{}),
		sendChan:   make(chan []byte, 64),
		frameChan:  make(chan []byte, 8),
	}
}

// Start runs the connect/read/write loop until Stop is called.
func (c *Client) Start() {
	c.runningMu.Lock()
	if c.isRunning {
		c.runningMu.Unlock()
		return
	}
	c.isRunning = true
	c.runningMu.Unlock()

	c.reconnectLoop()
}

// Stop gracefully closes the connection.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.runningMu.Lock()
		c.isRunning = false
		c.runningMu.Unlock()

		close(c.done)

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		log.Info("push client stopped")
	})
}

func (c *Client) connect() error {
	wsURL, err := buildWSURL(c.config.ServerURL, c.config.SourceID, c.config.AuthToken.Reveal())
	if err != nil {
		return fmt.Errorf("failed to build WebSocket URL: %w", err)
	}

	dialer, err := c.newDialer()
	if err != nil {
		return err
	}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	conn.SetReadLimit(maxMessageSize)
	log.Info("connected", "server", c.config.ServerURL)
	return nil
}

func (c *Client) newDialer() (*websocket.Dialer, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if c.config.ProxyAddr == "" {
		return dialer, nil
	}
	socks, err := proxy.SOCKS5("tcp", c.config.ProxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create socks5 dialer: %w", err)
	}
	dialer.NetDial = socks.Dial
	return dialer, nil
}

// buildWSURL upgrades http(s) to ws(s), sets the per-source path, and
// carries the auth token as a query parameter.
func buildWSURL(serverURL, sourceID, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	u.Path = fmt.Sprintf("/api/v1/sources/%s/ws", sourceID)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) reconnectLoop() {
	backoff := initialBackoff

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if err := c.connect(); err != nil {
			log.Warn("connection failed", "error", err)

			sleep := nextDelay(backoff)
			log.Info("retrying", "delay", sleep)
			select {
			case <-c.done:
				return
			case <-time.After(sleep):
			}

			backoff = time.Duration(float64(backoff) * backoffFactor)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		// Reset backoff on successful connection
		backoff = initialBackoff

		done := make(chan struct{})
		go c.writePump(done)
		c.readPump()
		close(done)

		c.runningMu.RLock()
		running := c.isRunning
		c.runningMu.RUnlock()
		if !running {
			return
		}
	}
}

// nextDelay jitters backoff by ±jitterFactor so a fleet of sources does
// not reconnect in lockstep after a server restart.
func nextDelay(backoff time.Duration) time.Duration {
	jitter := time.Duration(float64(backoff) * jitterFactor * (rand.Float64()*2 - 1))
	sleep := backoff + jitter
	if sleep < 0 {
		sleep = backoff
	}
	return sleep
}

func (c *Client) readPump() {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read error", "error", err)
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn("failed to parse message", "error", err)
			continue
		}

		// Server acknowledgments and errors carry no ID; commands do.
		if msg.ID == "" {
			continue
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Warn("failed to parse command", "error", err)
			continue
		}

		go c.processCommand(cmd)
	}
}

func (c *Client) writePump(done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.done:
			return

		case message := <-c.sendChan:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("write error", "error", err)
				return
			}

		case frame := <-c.frameChan:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Warn("binary write error", "error", err)
				return
			}

		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) processCommand(cmd Command) {
	reqLog := logging.WithRequest(log, cmd.ID, "")
	reqLog.Info("processing command", "commandType", cmd.Type)

	result := c.cmdHandler(cmd)
	result.Type = "command_result"
	result.CommandID = cmd.ID

	if len(result.Frame) > 0 {
		if err := c.SendFrame(cmd.ID, result.Frame); err != nil {
			reqLog.Error("failed to send capture frame", "error", err)
			result.Status = "failed"
			result.Error = err.Error()
			result.Result = nil
		}
	}

	if err := c.SendResult(result); err != nil {
		reqLog.Error("failed to send command result", "error", err)
	}
}

// SendResult sends a command result back to the server.
func (c *Client) SendResult(result CommandResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("client is stopped")
	default:
		return fmt.Errorf("send channel is full")
	}
}

// SendFrame sends an encoded capture as a binary message.
// Format: [0x01][36-byte request ID][JPEG data].
// Non-blocking: returns an error if the frame channel is full.
func (c *Client) SendFrame(requestID string, data []byte) error {
	msg := encodeFrame(requestID, data)

	select {
	case c.frameChan <- msg:
		return nil
	case <-c.done:
		return fmt.Errorf("client is stopped")
	default:
		return fmt.Errorf("frame channel full, dropping capture")
	}
}

// encodeFrame builds the binary wire message. Request IDs are UUIDs;
// shorter IDs are zero-padded, longer ones truncated to 36 bytes.
func encodeFrame(requestID string, data []byte) []byte {
	msg := make([]byte, 1+requestIDLen+len(data))
	msg[0] = frameTypeCapture
	copy(msg[1:1+requestIDLen], requestID)
	copy(msg[1+requestIDLen:], data)
	return msg
}
