// Package pool provides a typed sync.Pool for objects that can be reset before reuse.
package pool

import "sync"

// Resetter is implemented by objects that clear their own state.
type Resetter interface {
	Reset()
}

// Pool is a generic pool of objects that implement Resetter.
type Pool[T Resetter] struct {
	pool sync.Pool
}

// New creates a pool that builds objects with newFn when it is empty.
func New[T Resetter](newFn func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return newFn() },
		},
	}
}

// Get returns a pooled object or a fresh one.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	obj.Reset()
	p.pool.Put(obj)
}
