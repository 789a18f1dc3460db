// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// UniformsSize is the byte size of the per-frame uniform block.
// Layout (WGSL uniform address space):
//
//	offset  0: time            f32
//	offset  8: resolution      vec2<f32>
//	offset 16: camera_position vec3<f32>
//	offset 32: camera_target   vec3<f32>
//	offset 48: camera_up       vec3<f32>
//	size   64 (rounded up to the 16-byte struct alignment)
const UniformsSize = 64

const (
	uniformTimeOffset       = 0
	uniformResolutionOffset = 8
	uniformPositionOffset   = 16
	uniformTargetOffset     = 32
	uniformUpOffset         = 48
)

// Uniforms is the per-frame record read by both shader stages.
type Uniforms struct {
	Time           float32
	Resolution     [2]float32
	CameraPosition [3]float32
	CameraTarget   [3]float32
	CameraUp       [3]float32
}

// Encode writes u into dst using the WGSL layout. dst must be at least
// UniformsSize bytes; padding bytes are zeroed.
func (u *Uniforms) Encode(dst []byte) {
	_ = dst[UniformsSize-1]
	clear(dst[:UniformsSize])
	putFloat32(dst[uniformTimeOffset:], u.Time)
	putFloats(dst[uniformResolutionOffset:], u.Resolution[:])
	putFloats(dst[uniformPositionOffset:], u.CameraPosition[:])
	putFloats(dst[uniformTargetOffset:], u.CameraTarget[:])
	putFloats(dst[uniformUpOffset:], u.CameraUp[:])
}

// DecodeUniforms reads a record previously written by Encode.
func DecodeUniforms(src []byte) Uniforms {
	_ = src[UniformsSize-1]
	var u Uniforms
	u.Time = getFloat32(src[uniformTimeOffset:])
	getFloats(src[uniformResolutionOffset:], u.Resolution[:])
	getFloats(src[uniformPositionOffset:], u.CameraPosition[:])
	getFloats(src[uniformTargetOffset:], u.CameraTarget[:])
	getFloats(src[uniformUpOffset:], u.CameraUp[:])
	return u
}

// Camera is a fixed look-at camera.
type Camera struct {
	Position [3]float32
	Target   [3]float32
	Up       [3]float32
}

// DefaultCamera looks at the origin from (0, 0, -3) with +Y up.
func DefaultCamera() Camera {
	return Camera{
		Position: [3]float32{0, 0, -3},
		Target:   [3]float32{0, 0, 0},
		Up:       [3]float32{0, 1, 0},
	}
}

// Vertex is one vertex of the full-screen quad.
type Vertex struct {
	Position [3]float32
	TexCoord [2]float32
}

// VertexStride is the byte stride per vertex: 3 + 2 float32.
const VertexStride = 20

// QuadVertexCount is the number of vertices in QuadVertices.
const QuadVertexCount = 6

// QuadVertices covers normalized device space with two triangles.
var QuadVertices = [QuadVertexCount]Vertex{
	// First triangle
	{Position: [3]float32{-1, -1, 0}, TexCoord: [2]float32{0, 0}}, // bottom left
	{Position: [3]float32{1, -1, 0}, TexCoord: [2]float32{1, 0}},  // bottom right
	{Position: [3]float32{-1, 1, 0}, TexCoord: [2]float32{0, 1}},  // top left

	// Second triangle
	{Position: [3]float32{1, -1, 0}, TexCoord: [2]float32{1, 0}}, // bottom right
	{Position: [3]float32{1, 1, 0}, TexCoord: [2]float32{1, 1}},  // top right
	{Position: [3]float32{-1, 1, 0}, TexCoord: [2]float32{0, 1}}, // top left
}

// encodeVertices packs vertices tightly at VertexStride.
func encodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		off := i * VertexStride
		putFloats(buf[off:], v.Position[:])
		putFloats(buf[off+12:], v.TexCoord[:])
	}
	return buf
}

// quadVertexLayout matches @location(0) position and @location(1) uv in
// the vertex shader.
func quadVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		},
	}
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putFloats(b []byte, vs []float32) {
	for i, v := range vs {
		putFloat32(b[i*4:], v)
	}
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func getFloats(b []byte, dst []float32) {
	for i := range dst {
		dst[i] = getFloat32(b[i*4:])
	}
}
