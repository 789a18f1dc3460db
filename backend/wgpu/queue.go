// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/bulb"
	"github.com/gogpu/wgpu/hal"
)

// pollInterval is how often the completion worker polls the HAL queue
// while submissions are outstanding.
const pollInterval = time.Millisecond

// destroyTimeout bounds how long Queue.Destroy waits for outstanding
// submissions after the device went idle.
const destroyTimeout = 5 * time.Second

// submission is one committed command buffer awaiting GPU completion.
type submission struct {
	index    uint64
	encoder  hal.CommandEncoder
	raw      hal.CommandBuffer
	handlers []func()
}

// retiredResource is destroyed once the completed submission index
// reaches after.
type retiredResource struct {
	after   uint64
	what    string
	destroy func()
}

// Queue implements [bulb.CommandQueue] on the device's HAL queue.
//
// Command buffers are recorded on the render goroutine. A worker goroutine
// polls the HAL queue for completed submissions and runs their completion
// handlers. Finished encoders and retired resources are reclaimed on the
// render goroutine the next time a command buffer is requested.
type Queue struct {
	device *Device
	label  string

	// Render goroutine only.
	free      []hal.CommandEncoder
	destroyed bool

	mu        sync.Mutex
	inflight  []*submission
	finished  []*submission
	retired   []retiredResource
	submitted uint64
	completed uint64

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

var _ bulb.CommandQueue = (*Queue)(nil)

func newQueue(d *Device, label string) *Queue {
	q := &Queue{
		device:  d,
		label:   label,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

// run is the completion worker.
func (q *Queue) run() {
	defer close(q.stopped)

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for {
		if q.Pending() == 0 {
			select {
			case <-q.done:
				return
			case <-q.wake:
			}
		} else {
			timer.Reset(pollInterval)
			select {
			case <-q.done:
				return
			case <-timer.C:
			}
		}
		q.poll()
	}
}

// poll moves completed submissions to the finished list and runs their
// handlers, oldest first.
func (q *Queue) poll() {
	d := q.device
	d.queueMu.Lock()
	done := d.queue.PollCompleted()
	d.queueMu.Unlock()

	q.mu.Lock()
	if done > q.completed {
		q.completed = done
	}
	n := 0
	for n < len(q.inflight) && q.inflight[n].index <= done {
		n++
	}
	ready := q.inflight[:n:n]
	q.inflight = q.inflight[n:]
	q.finished = append(q.finished, ready...)
	q.mu.Unlock()

	for _, s := range ready {
		for _, h := range s.handlers {
			h()
		}
	}
}

// Pending returns the number of submissions not yet known to be complete.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// Completed returns the highest completed submission index.
func (q *Queue) Completed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// retire schedules fn after every submission made so far.
func (q *Queue) retire(what string, fn func()) {
	q.mu.Lock()
	if q.submitted <= q.completed {
		q.mu.Unlock()
		fn()
		return
	}
	q.retired = append(q.retired, retiredResource{after: q.submitted, what: what, destroy: fn})
	q.mu.Unlock()
}

// collect recycles finished encoders and destroys retired resources whose
// submissions have completed. With force every retired resource goes.
func (q *Queue) collect(force bool) {
	q.mu.Lock()
	finished := q.finished
	q.finished = nil
	var due []retiredResource
	keep := q.retired[:0]
	for _, r := range q.retired {
		if force || r.after <= q.completed {
			due = append(due, r)
		} else {
			keep = append(keep, r)
		}
	}
	q.retired = keep
	q.mu.Unlock()

	for _, s := range finished {
		s.encoder.ResetAll([]hal.CommandBuffer{s.raw})
		q.free = append(q.free, s.encoder)
	}
	for _, r := range due {
		bulb.Logger().Debug("wgpu: destroying retired resource", "what", r.what)
		r.destroy()
	}
}

// acquireEncoder pops a pooled encoder or creates one.
func (q *Queue) acquireEncoder() (hal.CommandEncoder, error) {
	if n := len(q.free); n > 0 {
		enc := q.free[n-1]
		q.free = q.free[:n-1]
		return enc, nil
	}
	enc, err := q.device.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: q.label + "_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return enc, nil
}

func (q *Queue) releaseEncoder(enc hal.CommandEncoder) {
	if q.destroyed {
		enc.Destroy()
		return
	}
	q.free = append(q.free, enc)
}

// CommandBuffer starts recording a new command buffer.
func (q *Queue) CommandBuffer() (bulb.CommandBuffer, error) {
	if q.destroyed {
		return nil, fmt.Errorf("wgpu: queue %q: destroyed", q.label)
	}
	if err := q.device.alive(); err != nil {
		return nil, err
	}
	q.collect(false)

	enc, err := q.acquireEncoder()
	if err != nil {
		return nil, err
	}
	if err := enc.BeginEncoding(q.label + "_frame"); err != nil {
		enc.ResetAll(nil)
		q.releaseEncoder(enc)
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &CommandBuffer{queue: q, encoder: enc}, nil
}

// submit hands raw to the HAL queue and queues the completion handlers.
func (q *Queue) submit(enc hal.CommandEncoder, raw hal.CommandBuffer, handlers []func()) error {
	d := q.device
	d.queueMu.Lock()
	index, err := d.queue.Submit([]hal.CommandBuffer{raw})
	d.queueMu.Unlock()
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.submitted = index
	q.inflight = append(q.inflight, &submission{
		index:    index,
		encoder:  enc,
		raw:      raw,
		handlers: handlers,
	})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Destroy waits for the device to go idle, runs the remaining completion
// handlers, destroys retired resources and pooled encoders and stops the
// worker. Safe to call multiple times.
func (q *Queue) Destroy() {
	if q.destroyed {
		return
	}
	q.destroyed = true

	if err := q.device.hal.WaitIdle(); err != nil {
		bulb.Logger().Warn("wgpu: wait idle failed", "queue", q.label, "err", err)
	}

	deadline := time.Now().Add(destroyTimeout)
	for q.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(pollInterval)
	}
	close(q.done)
	<-q.stopped

	q.poll()
	if n := q.Pending(); n > 0 {
		bulb.Logger().Warn("wgpu: queue destroyed with submissions outstanding", "queue", q.label, "pending", n)
	}
	q.collect(true)

	for _, enc := range q.free {
		enc.Destroy()
	}
	q.free = nil
	q.device.forgetQueue(q)
}
