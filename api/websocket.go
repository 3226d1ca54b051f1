package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one connected push-feed subscriber. Its only shared state
// is the live subscription: readPump replaces it as subscribe messages
// arrive and tears it down on disconnect, writePump never touches it.
type wsClient struct {
	conn        *websocket.Conn
	send        chan BroadcastEvent
	broadcaster *Broadcaster

	mu  sync.Mutex
	sub *Subscription
}

// SubscriptionRequest is a client's `GET /api/v1/ws` subscribe message.
type SubscriptionRequest struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"sessionId"`
	EventTypes []string `json:"events"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade: %v", err)
		return
	}

	c := &wsClient{
		conn:        conn,
		send:        make(chan BroadcastEvent, 256),
		broadcaster: s.broadcaster,
	}
	go c.writePump()
	go c.readPump()
}

// readPump decodes subscribe messages off the wire until the connection
// drops, then unsubscribes itself in its own deferred close — there is
// no separate cleanup step for writePump or anything else to invoke.
func (c *wsClient) readPump() {
	defer func() {
		c.unsubscribe()
		if err := c.conn.Close(); err != nil {
			log.Printf("api: websocket close: %v", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("api: websocket read deadline: %v", err)
		return
	}

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("api: websocket read: %v", err)
			}
			return
		}

		var req SubscriptionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("api: parsing subscription request: %v", err)
			continue
		}
		if req.Type == "subscribe" {
			c.resubscribe(req)
		}
	}
}

// writePump drains the client's event queue to the socket and pings on
// every tick, routing both kinds of write through writeDeadlined so the
// deadline-refresh-then-write sequence is written once.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.Printf("api: websocket close: %v", err)
		}
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.writeDeadlined(func() error {
					return c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				})
				return
			}
			if err := c.writeDeadlined(func() error { return c.conn.WriteJSON(event) }); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeDeadlined(func() error {
				return c.conn.WriteMessage(websocket.PingMessage, nil)
			}); err != nil {
				return
			}
		}
	}
}

// writeDeadlined extends the write deadline and performs write, logging
// whichever step fails.
func (c *wsClient) writeDeadlined(write func() error) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("api: websocket write deadline: %v", err)
		return err
	}
	if err := write(); err != nil {
		log.Printf("api: websocket write: %v", err)
		return err
	}
	return nil
}

// resubscribe swaps in a subscription matching req, unsubscribing from
// whatever it replaces, and starts a forwarding goroutine bound to the
// new subscription specifically (not to c.sub, which a concurrent
// resubscribe could otherwise replace again mid-forward).
func (c *wsClient) resubscribe(req SubscriptionRequest) {
	eventTypes := make([]EventType, 0, len(req.EventTypes))
	for _, et := range req.EventTypes {
		eventTypes = append(eventTypes, EventType(et))
	}

	next := c.broadcaster.Subscribe(req.SessionID, eventTypes)

	c.mu.Lock()
	prev := c.sub
	c.sub = next
	c.mu.Unlock()

	if prev != nil {
		c.broadcaster.Unsubscribe(prev)
	}
	go c.forward(next)
}

// forward copies events from sub to the client's send queue until sub's
// channel closes, dropping events a slow client hasn't drained rather
// than blocking the broadcaster.
func (c *wsClient) forward(sub *Subscription) {
	for event := range sub.Channel {
		select {
		case c.send <- event:
		default:
		}
	}
}

// unsubscribe tears down whatever subscription is currently live.
func (c *wsClient) unsubscribe() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		c.broadcaster.Unsubscribe(sub)
	}
}
