// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package app

import "errors"

var (
	// ErrAlreadyLaunched is returned when DidFinishLaunching runs twice.
	ErrAlreadyLaunched = errors.New("app: already launched")

	// ErrNoDevice is returned by an application that has no GPU device.
	ErrNoDevice = errors.New("app: no GPU device")

	// ErrInvalidWindow is returned for a window config with a non-positive size.
	ErrInvalidWindow = errors.New("app: invalid window config")

	// ErrWindowOpen is returned when a single-window application is asked
	// for a second window.
	ErrWindowOpen = errors.New("app: window already open")

	// ErrNoWindow is returned when frames are requested before a window
	// was opened.
	ErrNoWindow = errors.New("app: no window")
)
