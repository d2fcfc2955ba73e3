package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer opens gorilla websocket connections to the bridge URL
// and pumps inbound frames into the session's event callbacks.
type WebsocketDialer struct {
	URL              string
	HandshakeTimeout time.Duration
}

// Dial connects to the bridge and starts the read pump. The returned
// channel is live until closed by either side.
func (d *WebsocketDialer) Dial(ctx context.Context, events Events) (MessageChannel, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("payment: connect %s: %w", d.URL, err)
	}

	channel := &wsChannel{conn: conn}
	go channel.readPump(events)
	return channel, nil
}

type wsChannel struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func (c *wsChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("payment: send on closed channel")
	}
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}

// readPump forwards inbound frames until the connection dies, then fires
// exactly one of OnClose or OnError.
func (c *wsChannel) readPump(events Events) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err == nil {
			if events.OnMessage != nil {
				events.OnMessage(data)
			}
			continue
		}

		c.mu.Lock()
		closedLocally := c.closed
		c.mu.Unlock()
		if closedLocally {
			return
		}

		if closeErr, ok := err.(*websocket.CloseError); ok {
			if events.OnClose != nil {
				events.OnClose(closeErr.Code, closeErr.Text)
			}
			return
		}
		if events.OnError != nil {
			events.OnError(err)
		}
		return
	}
}
