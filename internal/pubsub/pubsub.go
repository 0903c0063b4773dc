// Package pubsub provides the publish/subscribe channel subscriptions read
// from. The schema builder owns one Channel and hands it to every operation.
package pubsub

import (
	"context"
	"sync"
)

// Channel fans published payloads out to subscribers of an event name.
// Publish must be safe for concurrent use.
type Channel interface {
	Publish(ctx context.Context, event string, data any) error
	// Subscribe returns a stream of payloads published to event after the
	// call. The stream is closed once ctx is done.
	Subscribe(ctx context.Context, event string) (<-chan any, error)
}

// DefaultBuffer is the per-subscriber buffer of a Memory channel.
const DefaultBuffer = 16

type subscriber struct {
	ch   chan any
	done chan struct{}
	once sync.Once
	// send is held shared by publishers while they send on ch and exclusively
	// while ch is closed.
	send sync.RWMutex
}

func (s *subscriber) stop() { s.once.Do(func() { close(s.done) }) }

// Memory is an in-process Channel.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
}

// NewMemory returns an in-process channel. A buffer <= 0 uses DefaultBuffer.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Memory{subs: make(map[string]map[*subscriber]struct{}), buffer: buffer}
}

// Publish delivers data to every current subscriber of event. It blocks while
// a subscriber's buffer is full, until that subscriber goes away or ctx ends.
// Subscribers are snapshotted first, so a blocked send holds up neither
// Subscribe nor publishes to other events.
func (m *Memory) Publish(ctx context.Context, event string, data any) error {
	m.mu.RLock()
	subs := make([]*subscriber, 0, len(m.subs[event]))
	for s := range m.subs[event] {
		subs = append(subs, s)
	}
	m.mu.RUnlock()

	for _, s := range subs {
		if err := s.deliver(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *subscriber) deliver(ctx context.Context, data any) error {
	s.send.RLock()
	defer s.send.RUnlock()
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.ch <- data:
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, event string) (<-chan any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &subscriber{ch: make(chan any, m.buffer), done: make(chan struct{})}
	m.mu.Lock()
	if m.subs[event] == nil {
		m.subs[event] = make(map[*subscriber]struct{})
	}
	m.subs[event][s] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.stop()
		m.mu.Lock()
		delete(m.subs[event], s)
		if len(m.subs[event]) == 0 {
			delete(m.subs, event)
		}
		m.mu.Unlock()
		s.send.Lock()
		close(s.ch)
		s.send.Unlock()
	}()
	return s.ch, nil
}

// Subscribers reports how many live subscribers event has.
func (m *Memory) Subscribers(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[event])
}
