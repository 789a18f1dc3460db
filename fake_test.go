// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gogpu/gputypes"
)

// minimalShader declares one vertex and one fragment entry point.
const minimalShader = `
struct Uniforms { time: f32 }
@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(p, 1.0);
}

@fragment fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(u.time, 0.0, 0.0, 1.0);
}
`

// vertexOnlyShader is missing the fragment entry point.
const vertexOnlyShader = `
@vertex fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(p, 1.0);
}
`

var fakeEntryPoint = regexp.MustCompile(`@(vertex|fragment)\s+fn\s+(\w+)`)

// fakeDevice is an in-memory Device. It counts live objects and references
// so tests can check that teardown is balanced.
type fakeDevice struct {
	mu sync.Mutex

	refs         int
	retains      int
	releases     int
	live         map[string]int
	doubleFrees  int
	buffersMade  int
	queue        *fakeQueue
	pipelineDesc *RenderPipelineDescriptor
	depthDesc    *DepthStencilDescriptor

	// Failure injection.
	queueErr     error
	compileErr   error
	pipelineErr  error
	depthErr     error
	bufferFailAt int // 1-based CreateBuffer call that fails, 0 = never
	autoComplete bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{refs: 1, live: make(map[string]int)}
}

func (d *fakeDevice) Retain() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refs++
	d.retains++
}

func (d *fakeDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refs--
	d.releases++
}

func (d *fakeDevice) track(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.live[kind]++
}

func (d *fakeDevice) untrack(kind string, destroyed *bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if *destroyed {
		d.doubleFrees++
		return
	}
	*destroyed = true
	d.live[kind]--
}

// liveCount returns the number of objects not yet destroyed.
func (d *fakeDevice) liveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.live {
		n += c
	}
	return n
}

func (d *fakeDevice) liveOf(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[kind]
}

func (d *fakeDevice) CreateCommandQueue(label string) (CommandQueue, error) {
	if d.queueErr != nil {
		return nil, d.queueErr
	}
	d.track("queue")
	d.queue = &fakeQueue{dev: d, autoComplete: d.autoComplete}
	return d.queue, nil
}

func (d *fakeDevice) CreateShaderLibrary(label, source string) (ShaderLibrary, error) {
	if d.compileErr != nil {
		return nil, d.compileErr
	}
	lib := &fakeLibrary{dev: d, funcs: make(map[string]*fakeFunction)}
	for _, m := range fakeEntryPoint.FindAllStringSubmatch(source, -1) {
		stage := gputypes.ShaderStageVertex
		if m[1] == "fragment" {
			stage = gputypes.ShaderStageFragment
		}
		lib.funcs[m[2]] = &fakeFunction{name: m[2], stage: stage}
	}
	d.track("library")
	return lib, nil
}

func (d *fakeDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	d.pipelineDesc = desc
	d.track("pipeline")
	return &fakePipeline{dev: d}, nil
}

func (d *fakeDevice) CreateDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error) {
	if d.depthErr != nil {
		return nil, d.depthErr
	}
	d.depthDesc = desc
	d.track("depth")
	return &fakeDepthState{dev: d}, nil
}

func (d *fakeDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	d.buffersMade++
	if d.bufferFailAt > 0 && d.buffersMade == d.bufferFailAt {
		return nil, errors.New("out of memory")
	}
	d.track("buffer")
	return &fakeBuffer{dev: d, label: desc.Label, usage: desc.Usage, data: make([]byte, desc.Size)}, nil
}

type fakeLibrary struct {
	dev       *fakeDevice
	funcs     map[string]*fakeFunction
	destroyed bool
}

func (l *fakeLibrary) Function(name string) (ShaderFunction, bool) {
	f, ok := l.funcs[name]
	if !ok {
		return nil, false
	}
	return f, true
}

func (l *fakeLibrary) Destroy() { l.dev.untrack("library", &l.destroyed) }

type fakeFunction struct {
	name  string
	stage gputypes.ShaderStage
}

func (f *fakeFunction) Name() string                { return f.name }
func (f *fakeFunction) Stage() gputypes.ShaderStage { return f.stage }

type fakePipeline struct {
	dev       *fakeDevice
	destroyed bool
}

func (p *fakePipeline) Destroy() { p.dev.untrack("pipeline", &p.destroyed) }

type fakeDepthState struct {
	dev       *fakeDevice
	destroyed bool
}

func (s *fakeDepthState) Destroy() { s.dev.untrack("depth", &s.destroyed) }

type flushRange struct{ offset, size int }

type fakeBuffer struct {
	dev       *fakeDevice
	label     string
	usage     gputypes.BufferUsage
	data      []byte
	flushes   []flushRange
	flushErr  error
	destroyed bool
}

func (b *fakeBuffer) Len() int         { return len(b.data) }
func (b *fakeBuffer) Contents() []byte { return b.data }

func (b *fakeBuffer) Flush(offset, size int) error {
	if b.flushErr != nil {
		return b.flushErr
	}
	b.flushes = append(b.flushes, flushRange{offset, size})
	return nil
}

func (b *fakeBuffer) Destroy() { b.dev.untrack("buffer", &b.destroyed) }

// fakeQueue hands out command buffers and holds committed ones until the
// test completes them.
type fakeQueue struct {
	dev          *fakeDevice
	autoComplete bool
	cbErr        error
	commitErr    error
	destroyed    bool

	mu        sync.Mutex
	pending   []*fakeCommandBuffer
	committed []*fakeCommandBuffer
	discarded int
	wg        sync.WaitGroup
}

func (q *fakeQueue) CommandBuffer() (CommandBuffer, error) {
	if q.cbErr != nil {
		return nil, q.cbErr
	}
	return &fakeCommandBuffer{queue: q}, nil
}

func (q *fakeQueue) Destroy() { q.dev.untrack("queue", &q.destroyed) }

// completeNext fires the completion handlers of the oldest pending buffer
// on a separate goroutine and waits for them. It reports whether a buffer
// was pending.
func (q *fakeQueue) completeNext() bool {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return false
	}
	cb := q.pending[0]
	q.pending = q.pending[1:]
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		cb.runHandlers()
	}()
	<-done
	return true
}

// completeAll completes every pending buffer.
func (q *fakeQueue) completeAll() {
	for q.completeNext() {
	}
}

func (q *fakeQueue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

type fakeCommandBuffer struct {
	queue     *fakeQueue
	handlers  []func()
	pass      *fakeEncoder
	presented Drawable
	committed bool
	discarded bool
}

func (c *fakeCommandBuffer) AddCompletedHandler(fn func()) {
	c.handlers = append(c.handlers, fn)
}

func (c *fakeCommandBuffer) BeginRenderPass(target RenderTarget) (RenderPassEncoder, error) {
	c.pass = &fakeEncoder{target: target}
	if t, ok := target.(*fakeTarget); ok {
		if t.passErr != nil {
			return nil, t.passErr
		}
		c.pass.endErr = t.endErr
	}
	return c.pass, nil
}

func (c *fakeCommandBuffer) Present(drawable Drawable) { c.presented = drawable }

func (c *fakeCommandBuffer) Commit() error {
	q := c.queue
	if q.commitErr != nil {
		return q.commitErr
	}
	c.committed = true
	q.mu.Lock()
	q.committed = append(q.committed, c)
	if !q.autoComplete {
		q.pending = append(q.pending, c)
	}
	q.mu.Unlock()

	if q.autoComplete {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			c.runHandlers()
		}()
	}
	if c.presented != nil {
		c.presented.Present()
	}
	return nil
}

func (c *fakeCommandBuffer) Discard() {
	c.discarded = true
	c.queue.mu.Lock()
	c.queue.discarded++
	c.queue.mu.Unlock()
}

func (c *fakeCommandBuffer) runHandlers() {
	for _, h := range c.handlers {
		h()
	}
}

type drawCall struct{ vertexCount, instanceCount, firstVertex, firstInstance int }

type fakeEncoder struct {
	target        RenderTarget
	pipeline      RenderPipeline
	depth         DepthStencilState
	vertexSlot    int
	vertexBuffer  Buffer
	uniformBuffer Buffer
	draws         []drawCall
	endErr        error
	ended         bool
}

func (e *fakeEncoder) SetPipeline(p RenderPipeline)             { e.pipeline = p }
func (e *fakeEncoder) SetDepthStencilState(s DepthStencilState) { e.depth = s }

func (e *fakeEncoder) SetVertexBuffer(slot int, buf Buffer, offset int) {
	e.vertexSlot = slot
	e.vertexBuffer = buf
}

func (e *fakeEncoder) SetUniformBuffer(buf Buffer, offset int) { e.uniformBuffer = buf }

func (e *fakeEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	e.draws = append(e.draws, drawCall{vertexCount, instanceCount, firstVertex, firstInstance})
}

func (e *fakeEncoder) End() error {
	e.ended = true
	return e.endErr
}

type fakeTarget struct {
	color   gputypes.TextureFormat
	depth   gputypes.TextureFormat
	passErr error
	endErr  error
}

func (t *fakeTarget) ColorFormat() gputypes.TextureFormat { return t.color }
func (t *fakeTarget) DepthFormat() gputypes.TextureFormat { return t.depth }

type fakeDrawable struct {
	mu       sync.Mutex
	presents int
}

func (d *fakeDrawable) Present() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presents++
}

func (d *fakeDrawable) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presents
}

// fakeSurface is a fixed-size surface with injectable acquisition errors.
type fakeSurface struct {
	width, height int
	target        *fakeTarget
	drawable      *fakeDrawable
	targetErr     error
	drawableErr   error
}

func newFakeSurface(width, height int) *fakeSurface {
	return &fakeSurface{
		width:    width,
		height:   height,
		target:   &fakeTarget{color: DefaultColorFormat, depth: DefaultDepthFormat},
		drawable: &fakeDrawable{},
	}
}

func (s *fakeSurface) DrawableSize() (int, int) { return s.width, s.height }

func (s *fakeSurface) CurrentRenderTarget() (RenderTarget, error) {
	if s.targetErr != nil {
		return nil, s.targetErr
	}
	return s.target, nil
}

func (s *fakeSurface) CurrentDrawable() (Drawable, error) {
	if s.drawableErr != nil {
		return nil, s.drawableErr
	}
	return s.drawable, nil
}
