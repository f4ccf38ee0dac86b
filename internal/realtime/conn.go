package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errQueueFull  = errors.New("send_queue_full")
	errConnClosed = errors.New("connection_closed")
)

// transport is the subset of *websocket.Conn the connection pumps rely on.
// Tests substitute an in-memory implementation.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Conn is one live client connection. Writes are serialized through a single
// writer goroutine draining the send queue; the transport never sees two
// concurrent writers. Enqueue is non-blocking so a slow consumer can never
// stall a broadcast.
type Conn struct {
	id      string
	actorID string
	sock    transport
	log     *zap.Logger

	send chan []byte

	mu      sync.Mutex
	subs    map[Key]struct{}
	closed  bool
	closeCh chan struct{}
	once    sync.Once
}

func newConn(id, actorID string, sock transport, queueLen int, log *zap.Logger) *Conn {
	if queueLen <= 0 {
		queueLen = 64
	}
	return &Conn{
		id:      id,
		actorID: actorID,
		sock:    sock,
		log:     log,
		send:    make(chan []byte, queueLen),
		subs:    make(map[Key]struct{}),
		closeCh: make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// ActorID returns the owning actor, empty when the client is anonymous.
func (c *Conn) ActorID() string { return c.actorID }

// Enqueue hands a pre-serialized frame to the writer goroutine. It never
// blocks: a full queue or a closed connection returns an error and the
// caller is expected to tear the connection down.
func (c *Conn) Enqueue(payload []byte) error {
	select {
	case <-c.closeCh:
		return errConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errQueueFull
	}
}

// close shuts the connection down exactly once. Safe to call from either
// pump or from the hub during a failed broadcast.
func (c *Conn) close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)
		_ = c.sock.Close()
	})
}

// writePump is the single writer for the transport. It drains the send
// queue, applying a bounded write deadline per frame, and emits pings to
// detect dead peers. Any write error tears the connection down.
func (c *Conn) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("write failed", zap.String("conn_id", c.id), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

func (c *Conn) addKey(key Key) {
	c.mu.Lock()
	c.subs[key] = struct{}{}
	c.mu.Unlock()
}

func (c *Conn) dropKey(key Key) {
	c.mu.Lock()
	delete(c.subs, key)
	c.mu.Unlock()
}

func (c *Conn) keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.subs))
	for key := range c.subs {
		out = append(out, key)
	}
	return out
}
