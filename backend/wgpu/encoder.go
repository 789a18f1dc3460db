// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type commandBufferState uint8

const (
	stateRecording commandBufferState = iota
	stateCommitted
	stateDiscarded
)

// CommandBuffer records one frame on a pooled HAL command encoder.
type CommandBuffer struct {
	queue     *Queue
	encoder   hal.CommandEncoder
	handlers  []func()
	drawables []bulb.Drawable
	pass      *RenderPassEncoder
	state     commandBufferState
}

var _ bulb.CommandBuffer = (*CommandBuffer)(nil)

// AddCompletedHandler registers fn to run on the queue's completion worker
// once the GPU has executed the buffer.
func (c *CommandBuffer) AddCompletedHandler(fn func()) {
	c.handlers = append(c.handlers, fn)
}

// BeginRenderPass starts a pass that clears the target's color and depth
// attachments. target must come from a surface of this package.
func (c *CommandBuffer) BeginRenderPass(target bulb.RenderTarget) (bulb.RenderPassEncoder, error) {
	if c.state != stateRecording {
		return nil, ErrCommandBufferState
	}
	if c.pass != nil && !c.pass.ended {
		return nil, errors.New("wgpu: render pass already open")
	}
	rt, ok := target.(*RenderTarget)
	if !ok || rt == nil {
		return nil, fmt.Errorf("render target: %w", ErrForeignObject)
	}
	if rt.colorView == nil || rt.depthView == nil {
		return nil, fmt.Errorf("wgpu: render target missing attachments")
	}

	raw := c.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: c.queue.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       rt.colorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: rt.clearColor,
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            rt.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: rt.clearDepth,
		},
	})
	c.pass = &RenderPassEncoder{cb: c, raw: raw, target: rt}
	return c.pass, nil
}

// Present schedules drawable to be presented right after submission.
func (c *CommandBuffer) Present(drawable bulb.Drawable) {
	if drawable != nil {
		c.drawables = append(c.drawables, drawable)
	}
}

// Commit finishes encoding and submits the buffer. On error nothing was
// submitted and the handlers will not run.
func (c *CommandBuffer) Commit() error {
	if c.state != stateRecording {
		return ErrCommandBufferState
	}
	if c.pass != nil && !c.pass.ended {
		return errors.New("wgpu: render pass not ended")
	}

	q := c.queue
	raw, err := c.encoder.EndEncoding()
	if err != nil {
		c.state = stateDiscarded
		c.encoder.ResetAll(nil)
		q.releaseEncoder(c.encoder)
		return fmt.Errorf("end encoding: %w", err)
	}
	if err := q.submit(c.encoder, raw, c.handlers); err != nil {
		c.state = stateDiscarded
		c.encoder.ResetAll([]hal.CommandBuffer{raw})
		q.releaseEncoder(c.encoder)
		return fmt.Errorf("submit: %w", err)
	}
	c.state = stateCommitted

	for _, d := range c.drawables {
		d.Present()
	}
	return nil
}

// Discard abandons the buffer. No-op once committed or discarded.
func (c *CommandBuffer) Discard() {
	if c.state != stateRecording {
		return
	}
	c.state = stateDiscarded
	if c.pass != nil && !c.pass.ended {
		c.pass.ended = true
		c.pass.raw.End()
	}
	c.encoder.DiscardEncoding()
	c.encoder.ResetAll(nil)
	c.queue.releaseEncoder(c.encoder)
}

// RenderPassEncoder records draws into a HAL render pass. Bindings are
// resolved at Draw time, when the pipeline variant for the current depth
// state is known. The first error is kept and returned by End.
type RenderPassEncoder struct {
	cb     *CommandBuffer
	raw    hal.RenderPassEncoder
	target *RenderTarget

	pipeline      *RenderPipeline
	depth         *DepthStencilState
	vertex        *Buffer
	vertexOffset  int
	uniforms      *Buffer
	uniformOffset int

	err   error
	ended bool
}

var _ bulb.RenderPassEncoder = (*RenderPassEncoder)(nil)

func (e *RenderPassEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// SetPipeline selects the pipeline for subsequent draws.
func (e *RenderPassEncoder) SetPipeline(pipeline bulb.RenderPipeline) {
	p, ok := pipeline.(*RenderPipeline)
	if !ok {
		e.fail(fmt.Errorf("pipeline: %w", ErrForeignObject))
		return
	}
	e.pipeline = p
}

// SetDepthStencilState selects the depth test for subsequent draws.
func (e *RenderPassEncoder) SetDepthStencilState(state bulb.DepthStencilState) {
	s, ok := state.(*DepthStencilState)
	if !ok {
		e.fail(fmt.Errorf("depth-stencil state: %w", ErrForeignObject))
		return
	}
	e.depth = s
}

// SetVertexBuffer binds buf at slot 0, the only slot the pipelines use.
func (e *RenderPassEncoder) SetVertexBuffer(slot int, buf bulb.Buffer, offset int) {
	b, ok := buf.(*Buffer)
	switch {
	case !ok:
		e.fail(fmt.Errorf("vertex buffer: %w", ErrForeignObject))
	case slot != 0:
		e.fail(fmt.Errorf("wgpu: vertex buffer slot %d out of range", slot))
	default:
		e.vertex, e.vertexOffset = b, offset
	}
}

// SetUniformBuffer binds buf as the uniform block at group 0, binding 0.
func (e *RenderPassEncoder) SetUniformBuffer(buf bulb.Buffer, offset int) {
	b, ok := buf.(*Buffer)
	if !ok {
		e.fail(fmt.Errorf("uniform buffer: %w", ErrForeignObject))
		return
	}
	e.uniforms, e.uniformOffset = b, offset
}

// Draw binds the current state and issues a non-indexed draw.
func (e *RenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	if e.err != nil || e.ended {
		return
	}
	p := e.pipeline
	if p == nil {
		e.fail(errors.New("wgpu: draw without pipeline"))
		return
	}
	if p.colorFormat != e.target.colorFormat || p.depthFormat != e.target.depthFormat {
		e.fail(fmt.Errorf("wgpu: pipeline formats %v/%v do not match target %v/%v",
			p.colorFormat, p.depthFormat, e.target.colorFormat, e.target.depthFormat))
		return
	}

	key := baseDepth
	if e.depth != nil {
		key = e.depth.key
	}
	rp, err := p.variant(key)
	if err != nil {
		e.fail(err)
		return
	}
	e.raw.SetPipeline(rp)

	if e.uniforms != nil {
		bg, err := e.uniforms.bindGroup(p, e.uniformOffset)
		if err != nil {
			e.fail(err)
			return
		}
		e.raw.SetBindGroup(0, bg, nil)
	}
	if e.vertex != nil {
		e.raw.SetVertexBuffer(0, e.vertex.raw, uint64(e.vertexOffset))
	}
	e.raw.Draw(uint32(vertexCount), uint32(instanceCount), uint32(firstVertex), uint32(firstInstance))
}

// End closes the pass and returns the first recording error, if any.
func (e *RenderPassEncoder) End() error {
	if e.ended {
		return ErrCommandBufferState
	}
	e.ended = true
	e.raw.End()
	return e.err
}
