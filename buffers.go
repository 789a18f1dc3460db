// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// FrameSlot is one entry of the uniform ring buffer.
type FrameSlot struct {
	Index    int
	Uniforms Buffer
}

// FrameBufferPool owns the static quad vertex buffer and one uniform buffer
// per frame slot.
type FrameBufferPool struct {
	vertices Buffer
	slots    []FrameSlot
}

// NewFrameBufferPool allocates the vertex buffer, uploads the quad geometry
// and allocates n uniform buffers of [UniformsSize] bytes. Allocation
// failures return a [DeviceError]; buffers created before the failure are
// destroyed.
func NewFrameBufferPool(ctx *GraphicsContext, label string, n int) (*FrameBufferPool, error) {
	if n < 1 {
		return nil, newRendererError(DeviceError, fmt.Errorf("invalid frame slot count %d", n))
	}
	device := ctx.Device()
	pool := &FrameBufferPool{slots: make([]FrameSlot, 0, n)}

	vertexData := encodeVertices(QuadVertices[:])
	vertices, err := device.CreateBuffer(&BufferDescriptor{
		Label: label + "_quad_vertices",
		Size:  len(vertexData),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, newRendererError(DeviceError, fmt.Errorf("create vertex buffer: %w", err))
	}
	pool.vertices = vertices

	copy(vertices.Contents(), vertexData)
	if err := vertices.Flush(0, len(vertexData)); err != nil {
		pool.Destroy()
		return nil, newRendererError(DeviceError, fmt.Errorf("flush vertex buffer: %w", err))
	}

	for i := range n {
		buf, err := device.CreateBuffer(&BufferDescriptor{
			Label: fmt.Sprintf("%s_uniforms_%d", label, i),
			Size:  UniformsSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			pool.Destroy()
			return nil, newRendererError(DeviceError, fmt.Errorf("create uniform buffer %d: %w", i, err))
		}
		pool.slots = append(pool.slots, FrameSlot{Index: i, Uniforms: buf})
	}

	return pool, nil
}

// VertexBuffer returns the static full-screen quad.
func (p *FrameBufferPool) VertexBuffer() Buffer { return p.vertices }

// Len returns the number of frame slots.
func (p *FrameBufferPool) Len() int { return len(p.slots) }

// Slot returns frame slot i.
func (p *FrameBufferPool) Slot(i int) *FrameSlot { return &p.slots[i] }

// Destroy releases the uniform buffers and the vertex buffer.
// Safe to call multiple times.
func (p *FrameBufferPool) Destroy() {
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.slots[i].Uniforms.Destroy()
	}
	p.slots = nil
	if p.vertices != nil {
		p.vertices.Destroy()
		p.vertices = nil
	}
}
