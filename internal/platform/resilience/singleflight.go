package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one execution.
// The sheets gateway keys it by request URL so two lazy reads of the same
// match never hit the API twice.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*flightCall[T]
}

type flightCall[T any] struct {
	wg   sync.WaitGroup
	val  T
	err  error
	dups int
}

// Do runs fn once per key among concurrent callers. shared reports whether
// the result was handed to more than one caller.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flightCall[T])
	}

	if c, ok := g.calls[key]; ok {
		c.dups++
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, true
	}

	c := &flightCall[T]{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	dups := c.dups
	g.mu.Unlock()

	return c.val, c.err, dups > 0
}

// Forget drops an in-flight key so the next caller starts a fresh execution.
func (g *SingleFlight[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
}
