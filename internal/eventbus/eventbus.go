// Package eventbus provides the in-process publish/subscribe bus that links
// the booking and optimizer paths to the metrics recorders.
package eventbus

import "sync"

// Event is any value published on the bus.
type Event interface{}

// Bus is the subscription surface exposed to consumers.
type Bus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

const subBuffer = 16

// InProc is the channel fan-out Bus used in the service. Slow subscribers
// drop events rather than block publishers.
type InProc struct {
	mu     sync.Mutex
	subs   map[<-chan Event]chan Event
	closed bool
}

// New returns an empty in-process bus.
func New() *InProc {
	return &InProc{subs: make(map[<-chan Event]chan Event)}
}

// Publish delivers e to every subscriber without blocking.
func (b *InProc) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe adds a subscriber. The returned channel is closed on
// Unsubscribe or Close.
func (b *InProc) Subscribe() <-chan Event {
	ch := make(chan Event, subBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = ch
	return ch
}

// Unsubscribe removes a subscriber. Safe to call after Close.
func (b *InProc) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[sub]
	if !ok {
		return
	}
	delete(b.subs, sub)
	if !b.closed {
		close(ch)
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *InProc) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
