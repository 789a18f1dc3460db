// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package app defines the hooks between a windowing shell and the bulb
// renderer.
//
// A shell implements [Application] and drives a [Delegate] through
// [Launch]: WillFinishLaunching before the event loop starts,
// DidFinishLaunching once the shell can create windows. The shell then
// calls the window's [FrameHandler] once per display refresh.
//
// [RendererDelegate] is the delegate used by cmd/bulb. It builds the
// renderer, opens the window and activates the application.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/bulb"
)

// ActivationPolicy controls how the process presents itself to the
// desktop.
type ActivationPolicy uint8

const (
	// ActivationPolicyRegular is an ordinary foreground application.
	ActivationPolicyRegular ActivationPolicy = iota

	// ActivationPolicyAccessory has windows but no dock or taskbar entry.
	ActivationPolicyAccessory

	// ActivationPolicyProhibited never activates.
	ActivationPolicyProhibited
)

func (p ActivationPolicy) String() string {
	switch p {
	case ActivationPolicyRegular:
		return "regular"
	case ActivationPolicyAccessory:
		return "accessory"
	case ActivationPolicyProhibited:
		return "prohibited"
	default:
		return fmt.Sprintf("ActivationPolicy(%d)", uint8(p))
	}
}

// WindowStyle is a set of window decoration flags.
type WindowStyle uint32

// Window style flags.
const (
	WindowStyleTitled WindowStyle = 1 << iota
	WindowStyleClosable
	WindowStyleMiniaturizable
	WindowStyleResizable
)

// Has reports whether all flags in f are set.
func (s WindowStyle) Has(f WindowStyle) bool { return s&f == f }

func (s WindowStyle) String() string {
	names := []struct {
		flag WindowStyle
		name string
	}{
		{WindowStyleTitled, "titled"},
		{WindowStyleClosable, "closable"},
		{WindowStyleMiniaturizable, "miniaturizable"},
		{WindowStyleResizable, "resizable"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "borderless"
	}
	return strings.Join(parts, "|")
}

// WindowConfig describes a window to open. X and Y are the top-left
// corner in screen points.
type WindowConfig struct {
	Title  string
	X, Y   int
	Width  int
	Height int
	Style  WindowStyle
}

// DefaultWindowConfig returns the Mandelbulb window: 900x1024 at (100,100),
// titled and closable.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Title:  "Mandelbulb",
		X:      100,
		Y:      100,
		Width:  900,
		Height: 1024,
		Style:  WindowStyleTitled | WindowStyleClosable,
	}
}

// Validate checks the window size.
func (c WindowConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidWindow, c.Width, c.Height)
	}
	return nil
}

// Window is an open window.
type Window interface {
	Title() string
	Close() error
}

// FrameHandler is called by the shell once per display refresh with the
// window's surface.
type FrameHandler interface {
	OnFrame(s bulb.Surface)
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(s bulb.Surface)

// OnFrame calls f(s).
func (f FrameHandlerFunc) OnFrame(s bulb.Surface) { f(s) }

// Application is the shell side of the lifecycle.
type Application interface {
	SetActivationPolicy(p ActivationPolicy)

	// Device returns the GPU device windows render with. The caller
	// retains it if it keeps it.
	Device() (bulb.Device, error)

	// OpenWindow creates and shows a window whose frames go to h.
	OpenWindow(cfg WindowConfig, h FrameHandler) (Window, error)

	// Activate brings the application to the foreground.
	Activate()
}

// Delegate receives lifecycle callbacks from the shell.
type Delegate interface {
	// WillFinishLaunching runs before the event loop starts.
	WillFinishLaunching(a Application)

	// DidFinishLaunching runs once the shell can create windows. An error
	// aborts startup.
	DidFinishLaunching(a Application) error

	// ShouldTerminateAfterLastWindowClosed reports whether the process
	// exits when its last window closes.
	ShouldTerminateAfterLastWindowClosed() bool
}

// Terminator is implemented by delegates that release resources before
// the process exits.
type Terminator interface {
	WillTerminate() error
}

// Launch runs the launch hooks of d against a. A renderer initialization
// failure is logged with its message and returned.
func Launch(a Application, d Delegate) error {
	d.WillFinishLaunching(a)
	if err := d.DidFinishLaunching(a); err != nil {
		var rerr *bulb.RendererError
		if errors.As(err, &rerr) {
			bulb.Logger().Error("app: renderer initialization failed", "error", rerr.Message())
		} else {
			bulb.Logger().Error("app: launch failed", "err", err)
		}
		return err
	}
	return nil
}

// Terminate calls d.WillTerminate when d implements Terminator.
func Terminate(d Delegate) error {
	if t, ok := d.(Terminator); ok {
		return t.WillTerminate()
	}
	return nil
}
