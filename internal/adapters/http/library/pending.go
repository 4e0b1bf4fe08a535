package library

import (
	"context"
	"fmt"
)

// Pending is the eventual result of a call running in its own goroutine.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine. A panic inside fn is reported as ErrPanicked.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if r := recover(); r != nil {
				p.err = fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()
		p.val, p.err = fn(ctx)
	}()
	return p
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Await blocks until the result is available or ctx is done. Giving up on
// the wait does not cancel the call; cancel the context passed to Go for that.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ScanLibraryAsync starts ScanLibrary in the background.
func (c *Client) ScanLibraryAsync(ctx context.Context) *Pending[*Response] {
	return Go(ctx, c.ScanLibrary)
}

// DownloadImagesAsync starts DownloadImages in the background.
func (c *Client) DownloadImagesAsync(ctx context.Context) *Pending[*Response] {
	return Go(ctx, c.DownloadImages)
}

// ListFilesAsync starts ListFiles in the background.
func (c *Client) ListFilesAsync(ctx context.Context) *Pending[[]string] {
	return Go(ctx, c.ListFiles)
}
