// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

// Package errors for the wgpu device backend.
var (
	// ErrNoBackend is returned by Open when no HAL backend is registered.
	ErrNoBackend = errors.New("wgpu: no GPU backend available")

	// ErrNoAdapter is returned by Open when the backend exposes no adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter found")

	// ErrNotHalProvider is returned by FromProvider when the provider does
	// not expose HAL device and queue handles.
	ErrNotHalProvider = errors.New("wgpu: provider does not expose HAL handles")

	// ErrDeviceReleased is returned when creating objects on a device whose
	// last reference has been released.
	ErrDeviceReleased = errors.New("wgpu: device released")

	// ErrForeignObject is returned when an object created by another device
	// backend is passed in.
	ErrForeignObject = errors.New("wgpu: object belongs to another backend")

	// ErrNoView is returned by ViewSurface when no host view is attached for
	// the current frame.
	ErrNoView = errors.New("wgpu: no surface view attached")

	// ErrInvalidSize is returned for zero or negative surface dimensions.
	ErrInvalidSize = errors.New("wgpu: invalid surface size")

	// ErrFlushRange is returned by Buffer.Flush for out-of-bounds ranges.
	ErrFlushRange = errors.New("wgpu: flush range out of bounds")

	// ErrCommandBufferState is returned when a command buffer is used after
	// it was committed or discarded.
	ErrCommandBufferState = errors.New("wgpu: command buffer already finished")
)
