package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue channel-backed queue implementation. One consumer goroutine per
// subscribed topic; messages published to a topic nobody has subscribed to yet
// are buffered until a subscriber arrives.
type MemoryQueue struct {
	topics map[string]*topic
	config *MemoryQueueConfig
	mu     sync.RWMutex
	closed bool
}

type topic struct {
	name     string
	messages chan []byte
}

// MemoryQueueConfig memory queue configuration
type MemoryQueueConfig struct {
	BufferSize int           `json:"buffer_size"`
	Timeout    time.Duration `json:"timeout"`
}

// NewMemoryQueue creates a new memory queue instance
func NewMemoryQueue(config *MemoryQueueConfig) (*MemoryQueue, error) {
	if config == nil {
		config = &MemoryQueueConfig{
			BufferSize: 1000,
			Timeout:    30 * time.Second,
		}
	}

	return &MemoryQueue{
		topics: make(map[string]*topic),
		config: config,
	}, nil
}

// Publish publishes a message to the queue
func (mq *MemoryQueue) Publish(ctx context.Context, name string, message []byte) error {
	mq.mu.Lock()
	if mq.closed {
		mq.mu.Unlock()
		return ErrQueueClosed
	}
	t := mq.getOrCreateTopic(name)
	mq.mu.Unlock()

	select {
	case t.messages <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mq.config.Timeout):
		return ErrPublishTimeout
	}
}

// Subscribe subscribes to messages from the queue. The handler runs on a
// dedicated goroutine until ctx is cancelled; handler errors are skipped so
// one bad message cannot stall the topic.
func (mq *MemoryQueue) Subscribe(ctx context.Context, name string, handler MessageHandler) error {
	mq.mu.Lock()
	if mq.closed {
		mq.mu.Unlock()
		return ErrQueueClosed
	}
	t := mq.getOrCreateTopic(name)
	mq.mu.Unlock()

	go func() {
		for {
			select {
			case message, ok := <-t.messages:
				if !ok {
					return
				}
				if err := handler(ctx, name, message); err != nil {
					continue
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Close closes the queue
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil
	}
	mq.closed = true

	for _, t := range mq.topics {
		close(t.messages)
	}
	mq.topics = make(map[string]*topic)

	return nil
}

// Health checks the health of the queue
func (mq *MemoryQueue) Health() error {
	mq.mu.RLock()
	defer mq.mu.RUnlock()

	if mq.closed {
		return ErrQueueClosed
	}
	return nil
}

// getOrCreateTopic must be called with mq.mu held
func (mq *MemoryQueue) getOrCreateTopic(name string) *topic {
	t, exists := mq.topics[name]
	if !exists {
		t = &topic{
			name:     name,
			messages: make(chan []byte, mq.config.BufferSize),
		}
		mq.topics[name] = t
	}
	return t
}
