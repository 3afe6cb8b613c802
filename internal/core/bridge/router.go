package bridge

import (
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

// Message is a payload split into its topic and remaining fields.
type Message struct {
	Topic  string
	Fields []string
	Raw    string
}

// TopicHandler handles messages routed to one topic.
type TopicHandler func(msg Message)

// Router is the default MessageHandler. It splits a payload on a separator
// and dispatches on the first field; payloads for unknown topics are logged.
type Router struct {
	separator string
	logger    log.Log

	mu       sync.RWMutex
	routes   map[string]TopicHandler
	fallback TopicHandler
}

func NewRouter(separator string, logger log.Log) *Router {
	if separator == "" {
		separator = ";"
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Router{
		separator: separator,
		logger:    logger.With(log.String("component", "router")),
		routes:    make(map[string]TopicHandler),
	}
}

// Handle registers h for topic, replacing any previous handler.
func (r *Router) Handle(topic string, h TopicHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[topic] = h
	r.logger.Debug("Topic handler registered", log.String("topic", topic))
}

// Remove unregisters topic.
func (r *Router) Remove(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, topic)
}

// HandleUnrouted replaces the logging fallback for unknown topics.
func (r *Router) HandleUnrouted(h TopicHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Topics returns the registered topics in sorted order.
func (r *Router) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.routes))
	for topic := range r.routes {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Parse splits payload into a Message. Trailing line terminators are not part
// of any field.
func (r *Router) Parse(payload string) Message {
	parts := strings.Split(strings.TrimRight(payload, "\r\n"), r.separator)
	return Message{
		Topic:  parts[0],
		Fields: parts[1:],
		Raw:    payload,
	}
}

// Dispatch routes payload. It satisfies MessageHandler.
func (r *Router) Dispatch(payload string) {
	msg := r.Parse(payload)

	r.mu.RLock()
	h, ok := r.routes[msg.Topic]
	fallback := r.fallback
	r.mu.RUnlock()

	switch {
	case ok:
		h(msg)
	case fallback != nil:
		fallback(msg)
	default:
		r.logger.Info("Received",
			log.String("topic", msg.Topic),
			log.String("payload", payload),
			log.Uint64("digest", xxhash.Sum64String(payload)))
	}
}
