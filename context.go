// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import "fmt"

// GraphicsContext holds the GPU device and the command queue.
//
// It retains the supplied device for its own lifetime and gives the
// reference back in Destroy, after the queue has been destroyed.
type GraphicsContext struct {
	device Device
	queue  CommandQueue
}

// NewGraphicsContext retains device and creates its command queue.
// If the queue cannot be created it returns a [DeviceError] and no resource
// is left behind.
func NewGraphicsContext(device Device, label string) (*GraphicsContext, error) {
	if device == nil {
		return nil, newRendererError(DeviceError, fmt.Errorf("nil device"))
	}

	device.Retain()
	queue, err := device.CreateCommandQueue(label + "_queue")
	if err != nil {
		device.Release()
		return nil, newRendererError(DeviceError, err)
	}
	if queue == nil {
		device.Release()
		return nil, newRendererError(DeviceError, nil)
	}

	return &GraphicsContext{device: device, queue: queue}, nil
}

// Device returns the retained device.
func (c *GraphicsContext) Device() Device { return c.device }

// Queue returns the command queue.
func (c *GraphicsContext) Queue() CommandQueue { return c.queue }

// Destroy destroys the queue, then releases the device.
// Safe to call multiple times.
func (c *GraphicsContext) Destroy() {
	if c.queue != nil {
		c.queue.Destroy()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
}
