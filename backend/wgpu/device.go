// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

func gpuInfoFrom(info gputypes.AdapterInfo) *GPUInfo {
	return &GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}

// logGPUInfo logs information about the selected GPU.
func logGPUInfo(info *GPUInfo) {
	if info == nil {
		return
	}
	bulb.Logger().Info("wgpu: GPU selected", "gpu", info.String())
	if info.Driver != "" {
		bulb.Logger().Debug("wgpu: driver", "driver", info.Driver)
	}
}

// DefaultBackends is the backend preference order used by Open.
var DefaultBackends = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Config selects the GPU opened by [Open].
type Config struct {
	// Backends lists backend variants in preference order.
	// Empty uses DefaultBackends.
	Backends []gputypes.Backend

	// Label prefixes debug labels of objects created by the device.
	Label string
}

// Device implements [bulb.Device] on a HAL device and queue.
//
// A Device starts with one reference, owned by whoever created it. When
// the last reference is released the device destroys the HAL handles it
// opened itself; handles adopted through [New] or [FromProvider] are left
// to their owner.
type Device struct {
	hal   hal.Device
	queue hal.Queue
	info  *GPUInfo
	label string

	refs     atomic.Int32
	teardown func()

	// queueMu serializes calls on the HAL queue. Not every backend's queue
	// is safe for concurrent use.
	queueMu sync.Mutex

	mu     sync.Mutex
	queues []*Queue
}

var _ bulb.Device = (*Device)(nil)

// New wraps HAL handles owned by the caller. Releasing the last reference
// does not destroy them.
func New(device hal.Device, queue hal.Queue) *Device {
	d := &Device{hal: device, queue: queue, label: "bulb"}
	d.refs.Store(1)
	return d
}

// Open enumerates the registered HAL backends in preference order and opens
// the best adapter of the first backend that yields one. Discrete GPUs are
// preferred over integrated ones.
func Open(cfg Config) (*Device, error) {
	backends := cfg.Backends
	if len(backends) == 0 {
		backends = DefaultBackends
	}

	var errs []error
	for _, variant := range backends {
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := openBackend(backend)
		if err != nil {
			bulb.Logger().Debug("wgpu: backend unavailable", "backend", variant, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", variant, err))
			continue
		}
		if cfg.Label != "" {
			d.label = cfg.Label
		}
		logGPUInfo(d.info)
		return d, nil
	}

	if len(errs) == 0 {
		return nil, ErrNoBackend
	}
	return nil, errors.Join(append([]error{ErrNoAdapter}, errs...)...)
}

func openBackend(backend hal.Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	exposed := pickAdapter(adapters)

	opened, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open adapter %q: %w", exposed.Info.Name, err)
	}

	d := New(opened.Device, opened.Queue)
	d.info = gpuInfoFrom(exposed.Info)
	d.teardown = func() {
		opened.Device.Destroy()
		instance.Destroy()
	}
	return d, nil
}

// pickAdapter prefers a discrete GPU, then an integrated one, then the
// first adapter listed.
func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// halProvider is implemented by host device providers that expose their
// HAL handles.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider adopts the device and queue of a host application, for
// example the gogpu event loop. The host keeps ownership of the handles.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNotHalProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHalProvider)
	}

	d := New(device, queue)
	info := provider.AdapterInfo()
	d.info = &GPUInfo{Name: info.Name}
	logGPUInfo(d.info)
	return d, nil
}

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.hal }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// Info returns the selected GPU, or nil when unknown.
func (d *Device) Info() *GPUInfo { return d.info }

// Refs returns the current reference count.
func (d *Device) Refs() int { return int(d.refs.Load()) }

// Retain adds a reference.
func (d *Device) Retain() { d.refs.Add(1) }

// Release drops a reference. On the last one the device shuts down its
// queues and destroys the HAL handles it opened.
func (d *Device) Release() {
	n := d.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		d.refs.Add(1)
		bulb.Logger().Warn("wgpu: device released more times than retained")
		return
	}

	d.mu.Lock()
	queues := d.queues
	d.queues = nil
	d.mu.Unlock()
	for _, q := range queues {
		q.Destroy()
	}

	if d.teardown != nil {
		d.teardown()
		d.teardown = nil
	}
	bulb.Logger().Debug("wgpu: device released")
}

func (d *Device) alive() error {
	if d.refs.Load() <= 0 {
		return ErrDeviceReleased
	}
	return nil
}

// CreateCommandQueue creates a queue backed by the device's HAL queue.
func (d *Device) CreateCommandQueue(label string) (bulb.CommandQueue, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	q := newQueue(d, label)
	d.mu.Lock()
	d.queues = append(d.queues, q)
	d.mu.Unlock()
	return q, nil
}

// forgetQueue drops q from the device's queue list.
func (d *Device) forgetQueue(q *Queue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, other := range d.queues {
		if other == q {
			d.queues = append(d.queues[:i], d.queues[i+1:]...)
			return
		}
	}
}

// retire destroys fn's resource once every submission made so far has
// completed. Without a live queue it runs immediately.
func (d *Device) retire(what string, fn func()) {
	d.mu.Lock()
	var q *Queue
	if n := len(d.queues); n > 0 {
		q = d.queues[n-1]
	}
	d.mu.Unlock()

	if q == nil {
		fn()
		return
	}
	q.retire(what, fn)
}

// CreateBuffer allocates a HAL buffer with a CPU shadow copy.
func (d *Device) CreateBuffer(desc *bulb.BufferDescriptor) (bulb.Buffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if desc.Size <= 0 {
		return nil, fmt.Errorf("wgpu: buffer %q: invalid size %d", desc.Label, desc.Size)
	}
	raw, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  uint64(desc.Size),
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	return &Buffer{
		device: d,
		raw:    raw,
		label:  desc.Label,
		shadow: make([]byte, desc.Size),
	}, nil
}
