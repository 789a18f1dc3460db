// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"testing"
	"time"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererOnNoopDevice(t *testing.T) {
	d := newNoopDevice(t)
	s, err := NewOffscreenSurface(d, 900, 1024, bulb.DefaultColorFormat)
	require.NoError(t, err)
	defer s.Destroy()

	r, err := bulb.New(d, bulb.WithShaderSource(testShader))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Refs())

	for range 10 {
		require.NoError(t, r.DrawFrame(s))
	}
	require.NoError(t, r.Close())

	stats := r.Stats()
	assert.Equal(t, uint64(10), stats.Submitted)
	assert.Equal(t, uint64(10), stats.Completed)
	assert.Equal(t, uint64(0), stats.Skipped)
	assert.Equal(t, 0, stats.InFlight)
	assert.InDelta(t, 0.16, r.Time(), 1e-5)
	assert.Equal(t, uint64(10), s.Presented())
	assert.Equal(t, 1, d.Refs())
	assert.LessOrEqual(t, encodersCreated(d), bulb.DefaultFramesInFlight+1)
}

func TestRendererBackpressureOnGatedDevice(t *testing.T) {
	d, gate := newGatedDevice(t)
	s, err := NewOffscreenSurface(d, 64, 64, bulb.DefaultColorFormat)
	require.NoError(t, err)
	defer s.Destroy()

	r, err := bulb.New(d, bulb.WithShaderSource(testShader), bulb.WithFramesInFlight(2))
	require.NoError(t, err)

	require.NoError(t, r.DrawFrame(s))
	require.NoError(t, r.DrawFrame(s))
	assert.Equal(t, 2, r.Stats().InFlight)

	done := make(chan error, 1)
	go func() { done <- r.DrawFrame(s) }()

	select {
	case <-done:
		t.Fatal("third frame did not wait for a free slot")
	case <-time.After(30 * time.Millisecond):
	}

	gate.complete(1)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(eventually):
		t.Fatal("third frame still blocked after completion")
	}

	gate.complete(3)
	require.NoError(t, r.Close())
	assert.Equal(t, uint64(3), r.Stats().Completed)
}

func TestRendererFormatMismatchSkips(t *testing.T) {
	d := newNoopDevice(t)
	s, err := NewOffscreenSurface(d, 64, 64, gputypes.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	defer s.Destroy()

	r, err := bulb.New(d, bulb.WithShaderSource(testShader))
	require.NoError(t, err)
	defer r.Close()

	err = r.DrawFrame(s)
	assert.ErrorIs(t, err, bulb.ErrFrameSkipped)
	assert.ErrorIs(t, err, bulb.ErrFormatMismatch)
	assert.Equal(t, uint64(1), r.Stats().Skipped)
	assert.Equal(t, 0, r.Stats().InFlight)
}

func TestRendererViewSurfaceWithoutView(t *testing.T) {
	d := newNoopDevice(t)
	s := NewViewSurface(d, bulb.DefaultColorFormat)
	defer s.Destroy()

	r, err := bulb.New(d, bulb.WithShaderSource(testShader))
	require.NoError(t, err)
	defer r.Close()

	err = r.DrawFrame(s)
	assert.ErrorIs(t, err, bulb.ErrFrameSkipped)
	assert.ErrorIs(t, err, ErrNoView)
}

func TestRendererCompileError(t *testing.T) {
	d := newNoopDevice(t)

	_, err := bulb.New(d, bulb.WithShaderSource("@fragment fn fs_main( {"))
	require.Error(t, err)
	assert.ErrorIs(t, err, bulb.ErrShaderCompilationFailed)
	assert.Equal(t, 1, d.Refs())
}
