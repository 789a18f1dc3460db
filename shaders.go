// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import _ "embed"

// DefaultShaderSource is the embedded Mandelbulb raymarcher (WGSL).
//
//go:embed shaders/mandelbulb.wgsl
var DefaultShaderSource string

// Entry point names defined by DefaultShaderSource.
const (
	DefaultVertexEntryPoint   = "vs_main"
	DefaultFragmentEntryPoint = "fs_main"
)
