// Package realtime pushes booking and calendar changes to websocket subscribers.
//
// Clients subscribe to topics. Every event is published on the owning doctor's topic
// ("doctor:<id>") and on TopicAll, so dashboards can follow one doctor while public booking
// pages follow everything.
package realtime

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/models"
)

// TopicAll receives every event.
const TopicAll = "all"

// DoctorTopic is the topic carrying events of one doctor.
func DoctorTopic(doctorID int64) string {
	return "doctor:" + strconv.FormatInt(doctorID, 10)
}

// Client is one websocket subscriber. Send is buffered; a full buffer drops messages.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// NewClient builds a client subscribed to topics.
func NewClient(id string, topics []string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{ID: id, Topics: topics, Send: make(chan []byte, buffer)}
}

// Hub tracks clients and their topic subscriptions. All methods are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	all     map[*Client]struct{}
	logger  *zap.Logger
	onCount func(int)
	now     func() time.Time
}

// NewHub creates an empty hub. onCount, when set, observes the client count after each change.
func NewHub(logger *zap.Logger, onCount func(int)) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
		onCount: onCount,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addLocked(topic, client)
	}
	count := len(h.all)
	h.mu.Unlock()
	h.reportCount(count)
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.all[client]; !ok {
		h.mu.Unlock()
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
	count := len(h.all)
	h.mu.Unlock()
	h.reportCount(count)
}

// Subscribe adds topics to a registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range topics {
		if _, exists := h.topics[topic][client]; exists {
			continue
		}
		h.addLocked(topic, client)
		client.Topics = append(client.Topics, topic)
	}
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		drop[topic] = struct{}{}
		h.removeLocked(topic, client)
	}
	remaining := client.Topics[:0]
	for _, topic := range client.Topics {
		if _, ok := drop[topic]; !ok {
			remaining = append(remaining, topic)
		}
	}
	client.Topics = remaining
}

// Broadcast delivers a pre-encoded message to every subscriber of the given topics. A client
// subscribed to several of them receives the message once. Slow clients are skipped.
func (h *Hub) Broadcast(message []byte, topics ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	delivered := 0
	for _, topic := range topics {
		for client := range h.topics[topic] {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			select {
			case client.Send <- message:
				delivered++
			default:
				h.logger.Debug("realtime client buffer full, dropping message", zap.String("client_id", client.ID))
			}
		}
	}
	return delivered
}

// PublishDoctorEvent encodes and broadcasts an event for one doctor. It never blocks.
func (h *Hub) PublishDoctorEvent(doctorID int64, eventType models.RealtimeEventType, payload interface{}) {
	event := models.RealtimeEvent{Type: eventType, Payload: payload, SentAt: h.now()}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("realtime event encode failed", zap.String("type", string(eventType)), zap.Error(err))
		return
	}
	delivered := h.Broadcast(data, DoctorTopic(doctorID), TopicAll)
	h.logger.Debug("realtime event published",
		zap.String("type", string(eventType)),
		zap.Int64("doctor_id", doctorID),
		zap.Int("delivered", delivered),
	)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of subscribers of topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// CloseAll disconnects every client; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	for client := range h.all {
		close(client.Send)
	}
	h.all = make(map[*Client]struct{})
	h.topics = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	h.reportCount(0)
}

func (h *Hub) addLocked(topic string, client *Client) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	subscribers, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.topics, topic)
	}
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}
