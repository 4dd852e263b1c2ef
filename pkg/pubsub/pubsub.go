// Package pubsub fans values out to the subscribers of a topic.
package pubsub

import (
	"sync"

	"podracer/pkg/log"
)

// topics shared by the front ends
const (
	TopicViews   = "views"
	TopicResults = "results"
)

const defaultBuffer = 16

type PubSub[T any] struct {
	mu     sync.Mutex
	subs   map[string][]chan T
	buffer int
}

func NewPubSub[T any]() *PubSub[T] {
	return NewBufferedPubSub[T](defaultBuffer)
}

func NewBufferedPubSub[T any](buffer int) *PubSub[T] {
	return &PubSub[T]{
		subs:   make(map[string][]chan T),
		buffer: buffer,
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, ps.buffer)
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

// Unsubscribe closes the channel returned by Subscribe.
func (ps *PubSub[T]) Unsubscribe(topic string, sub <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	chans := ps.subs[topic]
	for i, ch := range chans {
		if ch == sub {
			close(ch)
			ps.subs[topic] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the value.
func (ps *PubSub[T]) Publish(topic string, data T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
		default:
			log.Warn("dropping message for slow subscriber", log.String("topic", topic))
		}
	}
}

func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subs[topic])
}
