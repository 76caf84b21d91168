package atlas

import "context"

// Future is the single-shot result of a background computation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then delivers the result to cb through schedule, typically the UI thread
// queue. A nil schedule calls cb on the waiting goroutine.
func (f *Future[T]) Then(schedule func(func()), cb func(T, error)) {
	go func() {
		<-f.done
		if schedule == nil {
			cb(f.val, f.err)
			return
		}
		schedule(func() { cb(f.val, f.err) })
	}()
}
