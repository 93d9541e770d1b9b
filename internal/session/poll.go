package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
)

// recentErrorsSize bounds how many attempt errors a ReadResult keeps.
const recentErrorsSize = 8

// ReadOutcome is the reason the poll loop stopped.
type ReadOutcome int

const (
	ReadSucceeded ReadOutcome = iota
	ReadTimedOut
	ReadCanceled
)

func (o ReadOutcome) String() string {
	switch o {
	case ReadSucceeded:
		return "succeeded"
	case ReadTimedOut:
		return "timed out"
	case ReadCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("ReadOutcome(%d)", int(o))
	}
}

// ReadResult describes a finished poll loop.
type ReadResult struct {
	Outcome  ReadOutcome
	Data     []byte
	Attempts int
	Elapsed  time.Duration
	// LastErr is the error of the last failed attempt, kept for diagnostics only.
	LastErr error
	// RecentErrors holds the most recent failed attempt errors, oldest first.
	// Older ones are dropped once the buffer is full.
	RecentErrors []error
}

// ReadFunc performs one read attempt.
type ReadFunc func(ctx context.Context) ([]byte, error)

// PollRead calls read until it succeeds or more than timeout has elapsed since
// the loop started, sleeping interval between failed attempts. Attempt errors
// are not distinguished: every failure means "not ready yet".
//
// Each attempt's context carries the loop deadline, so a hung read cannot keep
// the loop alive past timeout. Cancelling ctx ends the loop with ReadCanceled.
func PollRead(ctx context.Context, read ReadFunc, timeout, interval time.Duration) ReadResult {
	start := time.Now()
	deadline := start.Add(timeout)
	recent := mpmc.NewOverlappedRingBuffer[error](recentErrorsSize)
	res := ReadResult{}

	finish := func(outcome ReadOutcome) ReadResult {
		res.Outcome = outcome
		res.Elapsed = time.Since(start)
		for !recent.IsEmpty() {
			err, derr := recent.Dequeue()
			if derr != nil {
				break
			}
			res.RecentErrors = append(res.RecentErrors, err)
		}
		return res
	}

	for {
		if time.Since(start) > timeout {
			return finish(ReadTimedOut)
		}
		if ctx.Err() != nil {
			return finish(ReadCanceled)
		}

		res.Attempts++
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		data, err := read(attemptCtx)
		cancel()
		if err == nil {
			res.Data = data
			res.LastErr = nil
			return finish(ReadSucceeded)
		}
		res.LastErr = err
		_, _ = recent.EnqueueM(err)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ReadCanceled)
		case <-timer.C:
		}
	}
}
