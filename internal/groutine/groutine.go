package groutine

import (
	"context"
	"fmt"
	"runtime/pprof"
)

type ctxKey string

const goroutineNameKey ctxKey = "goroutine_name"

// Go starts fn in a goroutine labelled with name (visible in pprof goroutine dumps)
// and returns a channel that receives fn's result exactly once before being closed.
// A panic inside fn is converted into an error on the channel.
//
// Example usage:
//
//	done := groutine.Go(ctx, "ble-scan", func(ctx context.Context) error {
//	    return dev.Scan(ctx, false, handler)
//	})
//	...
//	err := <-done
//
// If parentCtx is nil, context.Background() is used.
func Go(parentCtx context.Context, name string, fn func(ctx context.Context) error) <-chan error {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	done := make(chan error, 1)
	labels := pprof.Labels("goroutine_name", name)

	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("goroutine %q panicked: %v", name, r)
			}
		}()

		ctx = context.WithValue(ctx, goroutineNameKey, name)
		done <- fn(ctx)
	})

	return done
}

// GetName retrieves the goroutine name from the context.
func GetName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(goroutineNameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
