package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// TopicCampaignRuns carries CampaignRunJob payloads.
	TopicCampaignRuns = "campaign_runs"

	DefaultMaxRetries = 3
)

// Handler processes one message body. A non-nil error asks for a retry.
type Handler func(body []byte) error

// Queue interface
type Queue interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue fans messages out to subscribers in-process, with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler

	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: DefaultMaxRetries,
		Backoff:    500 * time.Millisecond,
	}
}

// job wraps a message body with retry info
type job struct {
	Topic      string
	Body       []byte
	RetryCount int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(handler, job{Topic: topic, Body: body})
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, j job) {
	log := zap.L().With(zap.String("topic", j.Topic))
	for {
		err := handler(j.Body)
		if err == nil {
			log.Debug("job processed", zap.Int("retries", j.RetryCount))
			return
		}

		j.RetryCount++
		if j.RetryCount > q.MaxRetries {
			log.Error("job permanently failed", zap.Int("attempts", j.RetryCount), zap.Error(err))
			return
		}
		log.Warn("job failed, retrying", zap.Int("attempt", j.RetryCount), zap.Int("max_retries", q.MaxRetries), zap.Error(err))

		// linear backoff before retry
		time.Sleep(time.Duration(j.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
