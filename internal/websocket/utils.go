package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Conn serializes writes to a gorilla connection, which allows one writer
// at a time, and keeps the peer alive with pings.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Wrap prepares ws for use: read deadline reset on every pong.
func Wrap(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(8 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Conn{ws: ws}
}

// WriteTyped sends v as JSON.
func (c *Conn) WriteTyped(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends an ErrorResponse.
func (c *Conn) WriteError(code, message string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Code: code, Message: message})
}

// ReadRequest blocks for the next client message. Any message counts as
// liveness.
func (c *Conn) ReadRequest(req *Request) error {
	if err := c.ws.ReadJSON(req); err != nil {
		return err
	}
	return c.ws.SetReadDeadline(time.Now().Add(pongWait))
}

// KeepAlive pings until done closes or a ping fails.
func (c *Conn) KeepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close sends a normal close frame and closes the socket.
func (c *Conn) Close(reason string) error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait))
	c.mu.Unlock()
	return c.ws.Close()
}

// IsUnexpectedClose reports a close other than a normal or going-away one.
func IsUnexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure)
}
