package watch

import "context"

// Update is one value delivered by Watch. Err is set when the load failed;
// the stream continues and retries on the next signal.
type Update[T any] struct {
	Value T
	Err   error
}

// Watch delivers load's current result, then a fresh result after every
// publish on topics, until ctx ends or the hub closes. Deliveries come from a
// single goroutine and never overlap; signals that arrive while a load is in
// flight collapse into one reload. The returned channel is closed on exit.
//
// A nil hub has no live updates: the stream delivers one result and closes.
func Watch[T any](ctx context.Context, h *Hub, load func(context.Context) (T, error), topics ...Topic) <-chan Update[T] {
	out := make(chan Update[T])
	if h == nil {
		go func() {
			defer close(out)
			v, err := load(ctx)
			select {
			case out <- Update[T]{Value: v, Err: err}:
			case <-ctx.Done():
			}
		}()
		return out
	}

	// Subscribe before the first load so a change committed during it is not lost.
	sub := h.Subscribe(topics...)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			v, err := load(ctx)
			select {
			case out <- Update[T]{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
			}
		}
	}()

	return out
}
