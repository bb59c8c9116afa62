package httpd

import (
	"context"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Hub fans leaderboard updates out to every connected websocket client.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    map[*client]bool{},
		broadcast:  make(chan []byte),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run dispatches messages until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Broadcast queues a message for every client. It is a no-op once the hub has
// stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) join(conn *websocket.Conn) (*client, bool) {
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}

	select {
	case h.register <- c:
		return c, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (c *client) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.send:
			if !ok {
				return
			}

			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()

			if err != nil {
				warnf("websocket write failed (%v)", err)
				return
			}
		}
	}
}

// readPump discards anything the client sends and returns when the connection
// is closed.
func (c *client) readPump(ctx context.Context) {
	defer c.hub.leave(c)

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				debugf("websocket closed (%v)", err)
			}
			return
		}
	}
}
