// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// FrameStats is a snapshot of the renderer's frame counters.
type FrameStats struct {
	// Submitted counts command buffers committed to the queue.
	Submitted uint64

	// Completed counts completion handlers that have fired.
	Completed uint64

	// Skipped counts frames dropped before submission.
	Skipped uint64

	// InFlight is the number of frames submitted but not yet completed.
	InFlight int
}

// Renderer draws the full-screen quad once per refresh callback.
//
// All methods except Stats must be called from the render goroutine, the
// one the host uses to invoke DrawFrame. GPU completions arrive on another
// goroutine and only touch the frame scheduler and the stats counters.
type Renderer struct {
	opts options

	ctx       *GraphicsContext
	pipeline  *PipelineState
	buffers   *FrameBufferPool
	scheduler *FrameScheduler

	// Render goroutine state. slot is the slot of the last submitted
	// frame; it only advances on a successful commit.
	slot  int
	time  float32
	angle float32

	submitted atomic.Uint64
	completed atomic.Uint64
	skipped   atomic.Uint64

	closeMu  sync.Mutex
	closing  atomic.Bool
	released bool
}

// New builds a renderer on device: graphics context, pipeline state and
// frame buffers, in that order.
//
// On failure everything acquired so far is released in reverse order and
// the returned error is a *[RendererError]. No partially initialized
// renderer is ever returned.
func New(device Device, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gctx, err := NewGraphicsContext(device, o.label)
	if err != nil {
		return nil, err
	}

	builder := NewPipelineBuilder(o.label)
	builder.VertexEntryPoint = o.vertexEntry
	builder.FragmentEntryPoint = o.fragmentEntry
	builder.ColorFormat = o.colorFormat
	builder.DepthFormat = o.depthFormat

	pipeline, err := builder.Build(gctx, o.shaderSource)
	if err != nil {
		gctx.Destroy()
		return nil, err
	}

	buffers, err := NewFrameBufferPool(gctx, o.label, o.framesInFlight)
	if err != nil {
		pipeline.Destroy()
		gctx.Destroy()
		return nil, err
	}

	Logger().Info("bulb: renderer created",
		"label", o.label,
		"frames_in_flight", o.framesInFlight,
		"color", o.colorFormat,
		"depth", o.depthFormat)

	return &Renderer{
		opts:      o,
		ctx:       gctx,
		pipeline:  pipeline,
		buffers:   buffers,
		scheduler: NewFrameScheduler(o.framesInFlight),
	}, nil
}

// DrawFrame renders one frame into s. It satisfies the per-refresh
// callback contract of the display surface.
//
// DrawFrame blocks while all frame slots are in flight. A frame that cannot
// be recorded (no render target, no drawable, encoder or submission
// failure) is dropped: nothing is submitted, the slot is returned and the
// error wraps [ErrFrameSkipped]. The next frame reuses the dropped slot, so
// slots stay in submission order and the permit count always matches the
// slots still read by the GPU.
func (r *Renderer) DrawFrame(s Surface) error {
	return r.DrawFrameContext(context.Background(), s)
}

// DrawFrameContext is like DrawFrame but gives up waiting for a free frame
// slot when ctx is done.
func (r *Renderer) DrawFrameContext(ctx context.Context, s Surface) error {
	if r.closing.Load() {
		return ErrClosed
	}

	next := (r.slot + 1) % r.buffers.Len()
	slot := r.buffers.Slot(next)

	if err := r.scheduler.Acquire(ctx); err != nil {
		r.skipped.Add(1)
		Logger().Warn("bulb: frame skipped", "slot", next, "err", err)
		return fmt.Errorf("%w: acquire frame slot: %w", ErrFrameSkipped, err)
	}

	r.time += r.opts.timeStep
	r.writeUniforms(slot, s)
	if err := slot.Uniforms.Flush(0, UniformsSize); err != nil {
		return r.skipFrame(nil, fmt.Errorf("flush uniforms: %w", err))
	}

	cb, err := r.ctx.Queue().CommandBuffer()
	if err != nil {
		return r.skipFrame(nil, fmt.Errorf("create command buffer: %w", err))
	}
	cb.AddCompletedHandler(r.frameCompleted)

	target, err := s.CurrentRenderTarget()
	if err != nil {
		return r.skipFrame(cb, fmt.Errorf("acquire render target: %w", err))
	}
	if target.ColorFormat() != r.pipeline.ColorFormat() || target.DepthFormat() != r.pipeline.DepthFormat() {
		return r.skipFrame(cb, fmt.Errorf("%w: target %v/%v, pipeline %v/%v", ErrFormatMismatch,
			target.ColorFormat(), target.DepthFormat(),
			r.pipeline.ColorFormat(), r.pipeline.DepthFormat()))
	}
	drawable, err := s.CurrentDrawable()
	if err != nil {
		return r.skipFrame(cb, fmt.Errorf("acquire drawable: %w", err))
	}

	pass, err := cb.BeginRenderPass(target)
	if err != nil {
		return r.skipFrame(cb, fmt.Errorf("begin render pass: %w", err))
	}
	pass.SetPipeline(r.pipeline.Pipeline)
	pass.SetDepthStencilState(r.pipeline.DepthStencil)
	pass.SetVertexBuffer(0, r.buffers.VertexBuffer(), 0)
	pass.SetUniformBuffer(slot.Uniforms, 0)
	pass.Draw(QuadVertexCount, 1, 0, 0)
	if err := pass.End(); err != nil {
		return r.skipFrame(cb, fmt.Errorf("end render pass: %w", err))
	}

	cb.Present(drawable)
	if err := cb.Commit(); err != nil {
		return r.skipFrame(cb, fmt.Errorf("commit: %w", err))
	}
	r.submitted.Add(1)
	r.slot = next

	r.angle += angleStep

	Logger().Debug("bulb: frame submitted", "slot", r.slot, "time", r.time)
	return nil
}

// writeUniforms encodes this frame's uniforms into the slot buffer.
func (r *Renderer) writeUniforms(slot *FrameSlot, s Surface) {
	w, h := s.DrawableSize()
	cam := r.opts.camera
	u := Uniforms{
		Time:           r.time,
		Resolution:     [2]float32{float32(w), float32(h)},
		CameraPosition: cam.Position,
		CameraTarget:   cam.Target,
		CameraUp:       cam.Up,
	}
	u.Encode(slot.Uniforms.Contents())
}

// frameCompleted runs on the completion goroutine.
func (r *Renderer) frameCompleted() {
	r.completed.Add(1)
	r.scheduler.Release()
}

// skipFrame discards cb, returns the slot permit the frame was holding and
// reports the skip.
func (r *Renderer) skipFrame(cb CommandBuffer, cause error) error {
	if cb != nil {
		cb.Discard()
	}
	r.scheduler.Release()
	r.skipped.Add(1)
	Logger().Warn("bulb: frame skipped", "slot", (r.slot+1)%r.buffers.Len(), "err", cause)
	return fmt.Errorf("%w: %w", ErrFrameSkipped, cause)
}

// Stats returns a snapshot of the frame counters. Safe to call from any
// goroutine.
func (r *Renderer) Stats() FrameStats {
	return FrameStats{
		Submitted: r.submitted.Load(),
		Completed: r.completed.Load(),
		Skipped:   r.skipped.Load(),
		InFlight:  r.scheduler.InFlight(),
	}
}

// Time returns the fixed-step clock written into the uniforms.
func (r *Renderer) Time() float32 { return r.time }

// Angle returns the rotation accumulator. It advances once per submitted
// frame and is not consumed by the shader.
func (r *Renderer) Angle() float32 { return r.angle }

// Slot returns the index of the frame slot used by the last submitted
// frame.
func (r *Renderer) Slot() int { return r.slot }

// FramesInFlight returns the number of frame slots.
func (r *Renderer) FramesInFlight() int { return r.scheduler.Capacity() }

// Close waits for every in-flight frame to complete, then releases the
// frame buffers, the pipeline state, the command queue and the device
// reference, in that order.
//
// If frames are still in flight after the drain timeout Close returns an
// error wrapping [ErrDrainTimeout] and keeps every resource alive; it may
// be called again. DrawFrame returns [ErrClosed] once Close has been
// called. Close is idempotent.
func (r *Renderer) Close() error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()

	r.closing.Store(true)
	if r.released {
		return nil
	}

	ctx := context.Background()
	if r.opts.drainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.drainTimeout)
		defer cancel()
	}
	if err := r.scheduler.Drain(ctx); err != nil {
		inFlight := r.scheduler.InFlight()
		Logger().Warn("bulb: close timed out draining frames", "in_flight", inFlight)
		return fmt.Errorf("%w: %d frames in flight: %w", ErrDrainTimeout, inFlight, err)
	}

	r.buffers.Destroy()
	r.pipeline.Destroy()
	r.ctx.Destroy()
	r.released = true

	stats := r.Stats()
	Logger().Info("bulb: renderer closed",
		"submitted", stats.Submitted,
		"completed", stats.Completed,
		"skipped", stats.Skipped)
	return nil
}
