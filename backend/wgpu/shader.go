// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/bulb"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"
)

// EntryPoint is a shader entry point found by CompileWGSL.
type EntryPoint struct {
	Name  string
	Stage gputypes.ShaderStage
}

// CompileWGSL parses, lowers and validates WGSL source with naga and
// returns its vertex and fragment entry points. The error carries the
// compiler diagnostic.
func CompileWGSL(source string) ([]EntryPoint, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", verrs[0])
	}

	entries := make([]EntryPoint, 0, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		var stage gputypes.ShaderStage
		switch ep.Stage {
		case ir.StageVertex:
			stage = gputypes.ShaderStageVertex
		case ir.StageFragment:
			stage = gputypes.ShaderStageFragment
		default:
			continue
		}
		entries = append(entries, EntryPoint{Name: ep.Name, Stage: stage})
	}
	return entries, nil
}

// ShaderLibrary is a compiled WGSL module.
type ShaderLibrary struct {
	device *Device
	module hal.ShaderModule
	funcs  map[string]*ShaderFunction
}

var _ bulb.ShaderLibrary = (*ShaderLibrary)(nil)

// ShaderFunction is one entry point of a ShaderLibrary.
type ShaderFunction struct {
	library *ShaderLibrary
	name    string
	stage   gputypes.ShaderStage
}

var _ bulb.ShaderFunction = (*ShaderFunction)(nil)

// CreateShaderLibrary compiles source with CompileWGSL and creates the HAL
// shader module from the WGSL text.
func (d *Device) CreateShaderLibrary(label, source string) (bulb.ShaderLibrary, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	entries, err := CompileWGSL(source)
	if err != nil {
		return nil, err
	}

	module, err := d.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", label, err)
	}

	lib := &ShaderLibrary{
		device: d,
		module: module,
		funcs:  make(map[string]*ShaderFunction, len(entries)),
	}
	for _, ep := range entries {
		lib.funcs[ep.Name] = &ShaderFunction{library: lib, name: ep.Name, stage: ep.Stage}
	}
	return lib, nil
}

// Function looks up an entry point by name.
func (l *ShaderLibrary) Function(name string) (bulb.ShaderFunction, bool) {
	fn, ok := l.funcs[name]
	if !ok {
		return nil, false
	}
	return fn, true
}

// Destroy releases the shader module.
func (l *ShaderLibrary) Destroy() {
	if l.module == nil {
		return
	}
	l.device.hal.DestroyShaderModule(l.module)
	l.module = nil
}

// Name returns the entry point name.
func (f *ShaderFunction) Name() string { return f.name }

// Stage returns the pipeline stage the entry point runs in.
func (f *ShaderFunction) Stage() gputypes.ShaderStage { return f.stage }
