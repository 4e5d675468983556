package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/metrics"
)

const (
	EventDatasetPrepared = "dataset.prepared"

	clientBuffer    = 8
	broadcastBuffer = 64
)

// Message is the JSON frame sent to subscribers.
type Message struct {
	Event   string    `json:"event"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

// Hub fans dataset events out to every subscriber. Slow subscribers miss
// messages instead of blocking the hub.
type Hub struct {
	clients    map[chan []byte]struct{}
	register   chan chan []byte
	unregister chan chan []byte
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[chan []byte]struct{}),
		register:   make(chan chan []byte),
		unregister: make(chan chan []byte),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run blocks until ctx is done, then closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client)
		}
		h.mu.Unlock()
		metrics.EventClients.Set(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventClients.Set(float64(n))
			logger.Debug("event subscriber connected", "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventClients.Set(float64(n))
			logger.Debug("event subscriber disconnected", "total", n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client <- msg:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Subscribe registers a subscriber. The returned channel is closed after
// cancel is called or the hub stops. ok is false when the hub is not running.
func (h *Hub) Subscribe() (msgs <-chan []byte, cancel func(), ok bool) {
	client := make(chan []byte, clientBuffer)
	select {
	case h.register <- client:
	case <-h.done:
		return nil, func() {}, false
	}

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		})
	}
	return client, cancel, true
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an event for broadcast. It never blocks; the event is
// dropped when the queue is full.
func (h *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(Message{Event: event, SentAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		logger.Error("marshal event failed", "event", event, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("event dropped, broadcast queue full", "event", event)
	}
}

// DatasetPrepared announces a freshly prepared dataset. It matches the
// dataset.Cache subscriber signature.
func (h *Hub) DatasetPrepared(ds *domain.Dataset) {
	h.Publish(EventDatasetPrepared, domain.DatasetInfo{
		Source:   ds.Source,
		RowCount: len(ds.Rows),
		Columns:  ds.Columns,
	})
}
