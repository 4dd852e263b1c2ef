package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPubSub_FanOut(t *testing.T) {
	ps := NewPubSub[string]()
	a := ps.Subscribe("t")
	b := ps.Subscribe("t")
	other := ps.Subscribe("other")

	ps.Publish("t", "hello")

	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
	assert.Empty(t, other)
}

func TestPubSub_Unsubscribe(t *testing.T) {
	ps := NewPubSub[int]()
	a := ps.Subscribe("t")
	b := ps.Subscribe("t")
	assert.Equal(t, 2, ps.Subscribers("t"))

	ps.Unsubscribe("t", a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, ps.Subscribers("t"))

	ps.Publish("t", 1)
	assert.Equal(t, 1, <-b)
}

func TestPubSub_SlowSubscriberDoesNotBlock(t *testing.T) {
	ps := NewBufferedPubSub[int](1)
	a := ps.Subscribe("t")

	ps.Publish("t", 1)
	ps.Publish("t", 2)

	assert.Equal(t, 1, <-a)
	assert.Empty(t, a)
}
