package loader

import "context"

// Future is the pending result of an asynchronous load.
type Future[T any] interface {
	// Get waits for the result. A done ctx stops the wait, not the load.
	Get(ctx context.Context) (T, error)
	Ready() bool
}

type future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine and returns its pending result.
func Go[T any](fn func() (T, error)) Future[T] {
	f := &future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

func (f *future[T]) Get(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// LoadJSONAsync starts LoadJSON on its own goroutine.
func (l *Loader) LoadJSONAsync(ctx context.Context, path string) Future[any] {
	return Go(func() (any, error) { return l.LoadJSON(ctx, path) })
}

// LoadBinaryAsync starts LoadBinary on its own goroutine.
func (l *Loader) LoadBinaryAsync(ctx context.Context, path string) Future[Blob] {
	return Go(func() (Blob, error) { return l.LoadBinary(ctx, path) })
}

// LoadJSONAsync starts a default-loader LoadJSON on its own goroutine.
func LoadJSONAsync(ctx context.Context, path string) Future[any] {
	return Default().LoadJSONAsync(ctx, path)
}

// LoadBinaryAsync starts a default-loader LoadBinary on its own goroutine.
func LoadBinaryAsync(ctx context.Context, path string) Future[Blob] {
	return Default().LoadBinaryAsync(ctx, path)
}
