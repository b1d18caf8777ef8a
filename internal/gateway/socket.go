package gateway

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 15 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	maxFrameSize = 4 << 20
)

// boardSocket relays between a websocket and the board's realtime channel.
// Every inbound frame is stamped with the connection's user before publishing,
// and every channel message is written back, the client's own included, so
// clients drop echoes by comparing Sender.
func (s *Server) boardSocket(c *gin.Context) {
	id, ok := boardID(c)
	if !ok {
		return
	}
	user := strings.TrimSpace(c.Query("user"))
	if user == "" {
		standardResponse(c, http.StatusBadRequest, nil, "user query parameter is required")
		return
	}
	if s.transport == nil {
		standardResponse(c, http.StatusServiceUnavailable, nil, "realtime transport unavailable")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.transport.Subscribe(ctx, id)
	if err != nil {
		log.Printf("[Gateway] Failed to subscribe board %s for %s: %v", id, user, err)
		standardResponse(c, http.StatusServiceUnavailable, nil, "failed to join board")
		return
	}
	defer ch.Close()

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Printf("[Gateway] Websocket upgrade failed for board %s: %v", id, err)
		return
	}
	defer conn.Close()

	log.Printf("[Gateway] %s joined board %s", user, id)

	done := make(chan struct{})
	go s.readFrames(ctx, conn, ch, id, user, done)

	s.writeFrames(conn, ch, id, done)

	// The reader may still be blocked if the write side gave up first.
	conn.Close()
	<-done

	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), writeWait)
	defer leaveCancel()
	if err := ch.Publish(leaveCtx, whiteboard.NewLeaveMessage(user)); err != nil {
		log.Printf("[Gateway] Failed to announce %s leaving board %s: %v", user, id, err)
	}
}

// writeFrames forwards channel messages to the socket until either side
// closes or the reader finishes.
func (s *Server) writeFrames(conn *websocket.Conn, ch whiteboard.Channel, id string, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	messages := ch.Messages()
	errs := ch.Errors()
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Gateway] Board %s channel error: %v", id, err)
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readFrames publishes inbound frames until the socket closes.
func (s *Server) readFrames(ctx context.Context, conn *websocket.Conn, ch whiteboard.Channel, id, user string, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg whiteboard.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Gateway] %s left board %s: %v", user, id, err)
			}
			return
		}

		msg.Sender = user
		if err := msg.Validate(); err != nil {
			log.Printf("[Gateway] Dropped invalid frame from %s on board %s: %v", user, id, err)
			continue
		}
		if err := ch.Publish(ctx, msg); err != nil {
			log.Printf("[Gateway] Failed to publish frame from %s on board %s: %v", user, id, err)
		}
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	allowAll := false
	for _, o := range s.config.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	origins := s.config.AllowedOrigins

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			for _, o := range origins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}
