package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPongTimeout  = 60 * time.Second
	maxFrameBytes       = 8 << 10
)

// ClientOptions tunes socket liveness.
type ClientOptions struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
}

// Client wraps a websocket connection with a single serialized writer and
// ping/pong liveness.
type Client struct {
	ws           *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	pongTimeout  time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func NewClient(ws *websocket.Conn, opts ClientOptions) *Client {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = defaultPongTimeout
	}
	return &Client{
		ws:           ws,
		writeTimeout: opts.WriteTimeout,
		pongTimeout:  opts.PongTimeout,
	}
}

// Send writes one text frame.
func (c *Client) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a close frame and releases the connection. Safe to call more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.writeTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// ReadLoop reads text frames until the peer goes away or stops answering
// pings, handing each frame to handle on the calling goroutine.
func (c *Client) ReadLoop(handle func([]byte)) error {
	c.ws.SetReadLimit(maxFrameBytes)
	if err := c.ws.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
		return err
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}
		handle(data)
	}
}

// KeepAlive pings the peer until ctx is done or a ping cannot be written.
func (c *Client) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(c.pongTimeout * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.writeTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
