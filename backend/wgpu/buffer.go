// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is a HAL buffer with a CPU shadow copy. Writes go to the shadow;
// Flush uploads the modified range through the queue.
type Buffer struct {
	device *Device
	raw    hal.Buffer
	label  string
	shadow []byte

	// Uniform bind groups, one per pipeline layout the buffer was bound with.
	bindGroups map[*RenderPipeline]hal.BindGroup
}

var _ bulb.Buffer = (*Buffer)(nil)

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return len(b.shadow) }

// Contents returns the CPU shadow.
func (b *Buffer) Contents() []byte { return b.shadow }

// Flush uploads [offset, offset+size) of the shadow to the GPU buffer.
func (b *Buffer) Flush(offset, size int) error {
	if b.raw == nil {
		return fmt.Errorf("wgpu: buffer %q: destroyed", b.label)
	}
	if offset < 0 || size < 0 || offset+size > len(b.shadow) {
		return fmt.Errorf("%w: buffer %q [%d, %d) of %d", ErrFlushRange, b.label, offset, offset+size, len(b.shadow))
	}
	if size == 0 {
		return nil
	}

	d := b.device
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	if err := d.queue.WriteBuffer(b.raw, uint64(offset), b.shadow[offset:offset+size]); err != nil {
		return fmt.Errorf("write buffer %q: %w", b.label, err)
	}
	return nil
}

// bindGroup returns the uniform bind group of b for p, creating it on
// first use.
func (b *Buffer) bindGroup(p *RenderPipeline, offset int) (hal.BindGroup, error) {
	if bg, ok := b.bindGroups[p]; ok && offset == 0 {
		return bg, nil
	}
	if offset != 0 {
		return nil, fmt.Errorf("wgpu: buffer %q: uniform offset %d not supported", b.label, offset)
	}

	bg, err := b.device.hal.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  b.label + "_bind_group",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: b.raw.NativeHandle(),
					Offset: 0,
					Size:   uint64(len(b.shadow)),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", b.label, err)
	}
	if b.bindGroups == nil {
		b.bindGroups = make(map[*RenderPipeline]hal.BindGroup)
	}
	b.bindGroups[p] = bg
	return bg, nil
}

// Destroy releases the bind groups and the HAL buffer once the GPU is done
// with them. Safe to call multiple times.
func (b *Buffer) Destroy() {
	if b.raw == nil {
		return
	}
	dev := b.device.hal
	raw, groups := b.raw, b.bindGroups
	b.raw, b.bindGroups = nil, nil

	b.device.retire("buffer "+b.label, func() {
		for _, bg := range groups {
			dev.DestroyBindGroup(bg)
		}
		dev.DestroyBuffer(raw)
	})
}
