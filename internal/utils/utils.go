// Package utils holds small helpers shared by the AI client and the CLI.
package utils

import (
	"context"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever happens first.
func WaitFor(ctx context.Context, d time.Duration) error {
	return WaitWith(ctx, d, sleep)
}

// WaitWith is WaitFor with a caller supplied sleep function.
func WaitWith(ctx context.Context, d time.Duration, pause func(time.Duration)) error {
	if d <= 0 {
		return nil
	}
	if pause == nil {
		pause = time.Sleep
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pause(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Seconds converts a duration into whole seconds, rounding to the nearest one.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Second) / time.Second)
}
