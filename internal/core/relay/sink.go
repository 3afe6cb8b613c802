package relay

import (
	"sync"

	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

// Sink receives the content published on one topic.
type Sink interface {
	Publish(topic, content string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(topic, content string) error

func (f SinkFunc) Publish(topic, content string) error {
	return f(topic, content)
}

// SinkFactory creates the sink for a topic the first time it is seen.
type SinkFactory func(topic string) (Sink, error)

// LogSinkFactory returns sinks that log each publication at info level.
func LogSinkFactory(logger log.Log) SinkFactory {
	return func(topic string) (Sink, error) {
		topicLogger := logger.With(log.String("topic", topic))
		return SinkFunc(func(_, content string) error {
			topicLogger.Info("Published", log.String("content", content))
			return nil
		}), nil
	}
}

type sinkRegistry struct {
	factory SinkFactory

	mu    sync.Mutex
	sinks map[string]Sink
}

func newSinkRegistry(factory SinkFactory) *sinkRegistry {
	return &sinkRegistry{factory: factory, sinks: make(map[string]Sink)}
}

func (r *sinkRegistry) get(topic string) (sink Sink, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sinks[topic]; ok {
		return s, false, nil
	}
	s, err := r.factory(topic)
	if err != nil {
		return nil, false, err
	}
	r.sinks[topic] = s
	return s, true, nil
}

func (r *sinkRegistry) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sinks))
	for topic := range r.sinks {
		out = append(out, topic)
	}
	return out
}
