// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import "errors"

// ErrorKind classifies a renderer initialization failure.
type ErrorKind uint8

// Initialization failure kinds.
const (
	// ShaderCompilationFailed means the driver compiler rejected the source.
	ShaderCompilationFailed ErrorKind = iota + 1

	// EntrypointNotFound means a required function is absent from the
	// compiled shader library.
	EntrypointNotFound

	// PipelineCreationFailed means the functions were valid but the
	// pipeline descriptor was rejected (for example a format mismatch).
	PipelineCreationFailed

	// DeviceError means a queue or device-level resource could not be created.
	DeviceError
)

// String returns the base message for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ShaderCompilationFailed:
		return "Shader compilation failed"
	case EntrypointNotFound:
		return "Shader entrypoint not found"
	case PipelineCreationFailed:
		return "Pipeline creation failed"
	case DeviceError:
		return "GPU device error"
	default:
		return "Unknown renderer error"
	}
}

// RendererError is returned by [New] and the individual build steps when
// initialization fails. It carries the failure kind and, when the driver
// supplied one, a diagnostic string.
//
// Use errors.Is with the Err* sentinels below to test the kind:
//
//	if errors.Is(err, bulb.ErrEntrypointNotFound) { ... }
type RendererError struct {
	Kind ErrorKind

	// Details is the driver-supplied diagnostic. Empty when none was given.
	Details string

	// Err is the underlying device error, if any.
	Err error
}

// newRendererError builds a RendererError whose details are taken from the
// cause's message.
func newRendererError(kind ErrorKind, cause error) *RendererError {
	e := &RendererError{Kind: kind, Err: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// Message returns the base description, followed by ": " and the
// diagnostic when one is present.
func (e *RendererError) Message() string {
	if e.Details == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Details
}

func (e *RendererError) Error() string { return e.Message() }

func (e *RendererError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind. A sentinel is a
// RendererError with no details and no cause.
func (e *RendererError) Is(target error) bool {
	t, ok := target.(*RendererError)
	if !ok {
		return false
	}
	return t.Details == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks against the four initialization kinds.
var (
	ErrShaderCompilationFailed = &RendererError{Kind: ShaderCompilationFailed}
	ErrEntrypointNotFound      = &RendererError{Kind: EntrypointNotFound}
	ErrPipelineCreationFailed  = &RendererError{Kind: PipelineCreationFailed}
	ErrDeviceError             = &RendererError{Kind: DeviceError}
)

// Runtime errors.
var (
	// ErrClosed is returned by operations on a closed renderer.
	ErrClosed = errors.New("bulb: renderer is closed")

	// ErrFrameSkipped wraps every per-frame failure. The frame was dropped
	// and the renderer remains usable.
	ErrFrameSkipped = errors.New("bulb: frame skipped")

	// ErrDrainTimeout is returned by Close when in-flight frames did not
	// complete in time. Resources are kept alive and Close may be retried.
	ErrDrainTimeout = errors.New("bulb: timed out draining in-flight frames")

	// ErrFormatMismatch is returned when a render target's attachment
	// formats do not match the pipeline.
	ErrFormatMismatch = errors.New("bulb: render target format mismatch")
)
