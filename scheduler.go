// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// FrameScheduler bounds the number of frames in flight.
//
// The render goroutine calls Acquire before writing into the frame slot it
// is about to reuse. Release is called from the GPU completion handler, on
// a different goroutine, once the frame that used the slot has finished.
// Both are safe to call concurrently; the scheduler is the only object
// shared between the render goroutine and completion handlers.
type FrameScheduler struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// NewFrameScheduler returns a scheduler allowing n frames in flight.
func NewFrameScheduler(n int) *FrameScheduler {
	if n < 1 {
		n = 1
	}
	return &FrameScheduler{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: int64(n),
	}
}

// Acquire blocks until a frame slot is free or ctx is done.
// Permits are granted in FIFO order.
func (s *FrameScheduler) Acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	s.inFlight.Add(1)
	return nil
}

// TryAcquire takes a frame slot without blocking. It reports whether a slot
// was available.
func (s *FrameScheduler) TryAcquire() bool {
	if !s.sem.TryAcquire(1) {
		return false
	}
	s.inFlight.Add(1)
	return true
}

// Release returns a frame slot. A release with no frame in flight is logged
// and ignored.
func (s *FrameScheduler) Release() {
	for {
		n := s.inFlight.Load()
		if n <= 0 {
			Logger().Warn("bulb: frame scheduler released with no frame in flight")
			return
		}
		if s.inFlight.CompareAndSwap(n, n-1) {
			break
		}
	}
	s.sem.Release(1)
}

// InFlight returns the number of acquired, not yet released slots.
func (s *FrameScheduler) InFlight() int {
	return int(s.inFlight.Load())
}

// Capacity returns the maximum number of frames in flight.
func (s *FrameScheduler) Capacity() int {
	return int(s.capacity)
}

// Drain blocks until every outstanding frame has been released, or ctx is
// done. The scheduler is usable again after Drain returns.
func (s *FrameScheduler) Drain(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, s.capacity); err != nil {
		return err
	}
	s.sem.Release(s.capacity)
	return nil
}
