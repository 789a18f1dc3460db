// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package app

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/bulb"
)

// RendererView draws a renderer frame on every refresh.
type RendererView struct {
	Renderer *bulb.Renderer

	// OnError receives DrawFrame errors. Nil logs them at debug level;
	// the renderer already warns about skipped frames.
	OnError func(error)

	frames atomic.Uint64
	errs   atomic.Uint64
}

var _ FrameHandler = (*RendererView)(nil)

// OnFrame calls Renderer.DrawFrame. Frames arriving after the renderer was
// closed are ignored.
func (v *RendererView) OnFrame(s bulb.Surface) {
	err := v.Renderer.DrawFrame(s)
	if err == nil {
		v.frames.Add(1)
		return
	}
	if errors.Is(err, bulb.ErrClosed) {
		return
	}
	v.errs.Add(1)
	if v.OnError != nil {
		v.OnError(err)
		return
	}
	bulb.Logger().Debug("app: frame failed", "err", err)
}

// Frames returns the number of frames drawn.
func (v *RendererView) Frames() uint64 { return v.frames.Load() }

// Errors returns the number of failed frames.
func (v *RendererView) Errors() uint64 { return v.errs.Load() }
