package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 512
)

// Conn is the slice of *websocket.Conn the client uses, fakeable in tests.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one connected live viewer. Viewers only receive; inbound frames
// are read and discarded to keep pong handling alive.
type Client struct {
	conn    Conn
	send    chan []byte
	logger  *zap.Logger
	onClose func(*Client)
	closed  sync.Once
}

// NewClient wraps an upgraded connection. onClose runs exactly once when the
// connection dies, whatever pump noticed it first.
func NewClient(conn Conn, logger *zap.Logger, onClose func(*Client)) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		logger:  logger,
		onClose: onClose,
	}
}

// Start launches the pumps and blocks until the connection closes.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

// Send enqueues a message without blocking. Returns false when the viewer's
// buffer is full; the message is dropped for this viewer only.
func (c *Client) Send(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer c.cleanup()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logger.Debug("viewer read closed", zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.cleanup()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	c.closed.Do(func() {
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}
