package pubsub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Broker is a simple in-memory pub/sub system used to stream judging
// progress and verdicts to websocket clients, one topic per submission.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte // topic -> list of subscriber channels
	cache       map[string][][]byte      // topic -> list of cached messages
}

// Message is one event on a submission topic. Stream distinguishes judging
// progress ("progress"), the final verdict ("verdict") and errors ("error").
type Message struct {
	Stream string `json:"stream"`
	Data   string `json:"data"`
}

var (
	once   sync.Once
	broker *Broker
)

// GetBroker returns the singleton instance of the Broker.
func GetBroker() *Broker {
	once.Do(func() {
		broker = &Broker{
			subscribers: make(map[string][]chan []byte),
			cache:       make(map[string][][]byte),
		}
	})
	return broker
}

// FormatMessage marshals a stream/data pair for publishing.
func FormatMessage(stream, data string) []byte {
	msg, err := json.Marshal(Message{Stream: stream, Data: data})
	if err != nil {
		zap.S().Errorf("failed to marshal pubsub message: %v", err)
		return nil
	}
	return msg
}

// Subscribe subscribes to a topic. Cached history is replayed into the
// subscriber's buffer before any live message, so a client connecting
// mid-judging still sees every event in order.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	b.mu.Lock()

	history := b.cache[topic]
	ch := make(chan []byte, len(history)+128)
	for _, msg := range history {
		ch <- msg
	}

	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subscribers[topic]
		for i, sub := range subscribers {
			if sub == ch {
				b.subscribers[topic] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
		zap.S().Debugf("unsubscribed from topic %s", topic)
	}

	zap.S().Debugf("new subscription to topic %s, sent %d cached messages", topic, len(history))
	return ch, unsubscribe
}

// Publish publishes a message to all subscribers of a topic and caches it.
func (b *Broker) Publish(topic string, msg []byte) {
	if msg == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache[topic] = append(b.cache[topic], msg)

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// A slow client must not block the publisher; drop for them.
		}
	}
}

// Topics lists the ids of topics that still hold cached messages.
func (b *Broker) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.cache))
	for id := range b.cache {
		ids = append(ids, id)
	}
	return ids
}

// CloseTopic closes all subscriber channels and clears the cache for a topic.
// Called once a submission's judging is finished.
func (b *Broker) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers[topic] {
		close(ch)
	}
	delete(b.subscribers, topic)
	delete(b.cache, topic)
}
