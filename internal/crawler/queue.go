package crawler

import (
	"container/list"
	"context"
	"sync"
)

// Item is a queue entry: either a unit of work or a stop signal.
type Item[T any] struct {
	Value T
	Stop  bool
}

// Work wraps v as a work item.
func Work[T any](v T) Item[T] {
	return Item[T]{Value: v}
}

// Stop returns a poison token.
func Stop[T any]() Item[T] {
	return Item[T]{Stop: true}
}

// Frontier is an unbounded blocking double-ended queue.
// PushBack appends normal work; PushFront is reserved for urgent items such
// as poison tokens, which must overtake queued work.
type Frontier[T any] struct {
	mu    sync.Mutex
	items *list.List
	// ready holds at most one wake-up; Pop passes it on when items remain.
	ready chan struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier[T any]() *Frontier[T] {
	return &Frontier[T]{
		items: list.New(),
		ready: make(chan struct{}, 1),
	}
}

// PushBack appends item.
func (f *Frontier[T]) PushBack(item Item[T]) {
	f.mu.Lock()
	f.items.PushBack(item)
	f.mu.Unlock()
	f.signal()
}

// PushFront prepends item.
func (f *Frontier[T]) PushFront(item Item[T]) {
	f.mu.Lock()
	f.items.PushFront(item)
	f.mu.Unlock()
	f.signal()
}

func (f *Frontier[T]) signal() {
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the first item, blocking until one is available
// or ctx is done.
func (f *Frontier[T]) Pop(ctx context.Context) (Item[T], error) {
	for {
		f.mu.Lock()
		if e := f.items.Front(); e != nil {
			f.items.Remove(e)
			more := f.items.Len() > 0
			f.mu.Unlock()
			if more {
				f.signal()
			}
			return e.Value.(Item[T]), nil
		}
		f.mu.Unlock()

		select {
		case <-f.ready:
		case <-ctx.Done():
			return Item[T]{}, ctx.Err()
		}
	}
}

// Len returns the number of queued items, poison tokens included.
func (f *Frontier[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items.Len()
}

// Drain removes every item and returns the work values, discarding poison
// tokens.
func (f *Frontier[T]) Drain() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []T
	for e := f.items.Front(); e != nil; e = e.Next() {
		if item := e.Value.(Item[T]); !item.Stop {
			out = append(out, item.Value)
		}
	}
	f.items.Init()
	return out
}
