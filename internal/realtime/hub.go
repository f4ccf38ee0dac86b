package realtime

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Envelope is the stable wire format for every pushed event.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Client messages form a small closed set dispatched through a switch, so an
// unknown type is an explicit error frame rather than a silent no-op.
const (
	clientSubscribe   = "subscribe"
	clientUnsubscribe = "unsubscribe"
)

// Server acknowledgement event types.
const (
	EventConnectionEstablished = "connection_established"
	EventSubscribed            = "subscribed"
	EventUnsubscribed          = "unsubscribed"
	EventError                 = "error"
)

type clientMessage struct {
	Type       string `json:"type"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resourceId"`
}

type subscriptionData struct {
	ConnectionID string `json:"connection_id,omitempty"`
	Resource     string `json:"resource"`
	ResourceID   string `json:"resourceId"`
}

// HubParams collects the hub dependencies.
type HubParams struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	GenID    *snowflake.Node
	Registry *Registry
	Metrics  *metrics.RealtimeMetrics `optional:"true"`
}

// Hub fans events out to subscribed connections. Delivery is best effort and
// at most once per connection per publish: a connection that cannot accept a
// frame is torn down, never retried, and never blocks the remaining
// recipients.
type Hub struct {
	cfg      config.Realtime
	log      *zap.Logger
	genID    *snowflake.Node
	registry *Registry
	metrics  *metrics.RealtimeMetrics
}

// NewHub constructs the broadcast hub.
func NewHub(p HubParams) *Hub {
	return &Hub{
		cfg:      p.Cfg.Realtime,
		log:      p.Log.Named("realtime.hub"),
		genID:    p.GenID,
		registry: p.Registry,
		metrics:  p.Metrics,
	}
}

// Registry exposes the connection registry, mainly for tests and handlers.
func (h *Hub) Registry() *Registry { return h.registry }

// PublishGlobal delivers to every registered connection.
func (h *Hub) PublishGlobal(eventType string, data any) {
	payload, ok := h.encode(eventType, data)
	if !ok {
		return
	}
	h.metrics.EventPublished("global")
	h.deliver(h.registry.AllConnections(), eventType, payload)
}

// PublishToResource delivers to connections subscribed to the exact
// (resourceType, resourceID) key and to the wildcard key of the same type.
func (h *Hub) PublishToResource(resourceType, resourceID, eventType string, data any) {
	payload, ok := h.encode(eventType, data)
	if !ok {
		return
	}
	h.metrics.EventPublished("resource")
	h.deliver(h.registry.ConnectionsForResource(resourceType, resourceID), eventType, payload)
}

// PublishToActor delivers only to connections registered under the actor id.
func (h *Hub) PublishToActor(actorID, eventType string, data any) {
	payload, ok := h.encode(eventType, data)
	if !ok {
		return
	}
	h.metrics.EventPublished("actor")
	h.deliver(h.registry.ConnectionsForActor(actorID), eventType, payload)
}

// HandleConnection owns the lifetime of one websocket client: it registers
// the connection under its initial subscription, acknowledges, then serves
// the read loop until the peer goes away. It blocks until teardown.
func (h *Hub) HandleConnection(sock *websocket.Conn, actorID string, initial Key) {
	conn := newConn(h.genID.Generate().String(), actorID, sock, h.cfg.SendQueueLen, h.log)
	h.registry.Register(conn, initial)

	go conn.writePump(h.cfg.WriteTimeout, h.cfg.PingInterval)

	h.sendDirect(conn, EventConnectionEstablished, subscriptionData{
		ConnectionID: conn.id,
		Resource:     initial.ResourceType,
		ResourceID:   initial.ResourceID,
	})

	h.readLoop(conn)
	h.teardown(conn)
}

// ServeConn is HandleConnection for an arbitrary transport; used in tests.
func (h *Hub) ServeConn(sock transport, actorID string, initial Key) *Conn {
	conn := newConn(h.genID.Generate().String(), actorID, sock, h.cfg.SendQueueLen, h.log)
	h.registry.Register(conn, initial)
	go conn.writePump(h.cfg.WriteTimeout, h.cfg.PingInterval)
	return conn
}

func (h *Hub) readLoop(conn *Conn) {
	pongWait := 2 * h.cfg.PingInterval
	_ = conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	conn.sock.SetPongHandler(func(string) error {
		return conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read failed", zap.String("conn_id", conn.id), zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendDirect(conn, EventError, map[string]string{"message": "malformed message"})
			continue
		}

		key := Key{ResourceType: msg.Resource, ResourceID: msg.ResourceID}
		if key.ResourceID == "" {
			key.ResourceID = WildcardID
		}

		switch msg.Type {
		case clientSubscribe:
			if key.ResourceType == "" {
				h.sendDirect(conn, EventError, map[string]string{"message": "resource is required"})
				continue
			}
			h.registry.AddSubscription(conn, key)
			h.sendDirect(conn, EventSubscribed, subscriptionData{Resource: key.ResourceType, ResourceID: key.ResourceID})
		case clientUnsubscribe:
			h.registry.RemoveSubscription(conn, key)
			h.sendDirect(conn, EventUnsubscribed, subscriptionData{Resource: key.ResourceType, ResourceID: key.ResourceID})
		default:
			h.sendDirect(conn, EventError, map[string]string{"message": "unknown message type"})
		}
	}
}

func (h *Hub) deliver(conns []*Conn, eventType string, payload []byte) {
	for _, conn := range conns {
		if err := conn.Enqueue(payload); err != nil {
			// A failed send never aborts delivery to the remaining
			// recipients; the dead connection is dropped instead.
			reason := "closed"
			if errors.Is(err, errQueueFull) {
				reason = "queue_full"
			}
			h.metrics.EventDropped(reason)
			h.log.Warn("dropping connection",
				zap.String("conn_id", conn.id),
				zap.String("event_type", eventType),
				zap.String("reason", reason),
			)
			h.teardown(conn)
		}
	}
}

func (h *Hub) teardown(conn *Conn) {
	h.registry.Unregister(conn)
	conn.close()
}

func (h *Hub) encode(eventType string, data any) ([]byte, bool) {
	payload, err := json.Marshal(Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.log.Error("encode event", zap.String("event_type", eventType), zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (h *Hub) sendDirect(conn *Conn, eventType string, data any) {
	payload, ok := h.encode(eventType, data)
	if !ok {
		return
	}
	if err := conn.Enqueue(payload); err != nil {
		h.teardown(conn)
	}
}
