// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/display"
	"github.com/gogpu/compositor/task"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host owns the device and passes it in; the compositor never creates
// one. DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// Errors.
var (
	// ErrOutputLost is returned when drawing to or binding a lost output.
	ErrOutputLost = errors.New("render: output surface lost")

	// ErrNoDevice is returned when binding a device output whose host
	// provides no device.
	ErrNoDevice = errors.New("render: host provides no device")
)

// UnsupportedFormatError reports a host surface format the compositor cannot
// present in.
type UnsupportedFormatError struct {
	Format gputypes.TextureFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("render: unsupported surface format %d", e.Format)
}

// DeviceOutputSurface is an output surface on a host GPU device. Frames are
// composed on the CPU and presented in the host surface format, RGBA8 or
// BGRA8.
//
// The device is checked when the display binds. A provider with no device
// fails the bind and the display reports the output surface as lost.
type DeviceOutputSurface struct {
	*PixmapOutputSurface
	handle DeviceHandle
}

// NewDeviceOutputSurface creates an output surface on the device of handle.
func NewDeviceOutputSurface(handle DeviceHandle, runner task.Runner) *DeviceOutputSurface {
	return &DeviceOutputSurface{
		PixmapOutputSurface: NewPixmapOutputSurface(runner),
		handle:              handle,
	}
}

// BindToClient checks the host device and surface format, then binds.
func (s *DeviceOutputSurface) BindToClient(client display.OutputSurfaceClient) error {
	if !deviceAvailable(s.handle) {
		s.lost = true
		return ErrNoDevice
	}
	switch f := s.handle.SurfaceFormat(); f {
	case gputypes.TextureFormatUndefined, gputypes.TextureFormatRGBA8Unorm:
		s.format = gputypes.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		s.format = gputypes.TextureFormatBGRA8Unorm
	default:
		s.lost = true
		return &UnsupportedFormatError{Format: f}
	}
	info := s.handle.AdapterInfo()
	compositor.Logger().Info("device output surface bound",
		"adapter", info.Name, "type", info.Type.String(),
		"bgra", s.format == gputypes.TextureFormatBGRA8Unorm)
	return s.PixmapOutputSurface.BindToClient(client)
}

// Handle returns the host device handle.
func (s *DeviceOutputSurface) Handle() DeviceHandle { return s.handle }

func deviceAvailable(h DeviceHandle) bool {
	return h != nil && h.Device() != nil
}

func softwareAdapter(h DeviceHandle) bool {
	return h != nil && h.AdapterInfo().Type == gpucontext.AdapterTypeSoftware
}

// NullDeviceHandle is a DeviceHandle without a device. Outputs on it can
// never be bound.
type NullDeviceHandle struct{}

// Device returns nil.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns TextureFormatUndefined.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "null", Type: gpucontext.AdapterTypeUnknown}
}

// SoftwareDeviceHandle is an in-process DeviceHandle backed by a CPU
// adapter. It lets hosts without a GPU exercise the device backend.
type SoftwareDeviceHandle struct {
	format gputypes.TextureFormat
}

type softwareDevice struct{}

// NewSoftwareDevice returns a software device presenting in format.
// TextureFormatUndefined presents in RGBA8.
func NewSoftwareDevice(format gputypes.TextureFormat) *SoftwareDeviceHandle {
	return &SoftwareDeviceHandle{format: format}
}

// Device returns the software device.
func (h *SoftwareDeviceHandle) Device() gpucontext.Device { return softwareDevice{} }

// Queue returns nil; frames are presented without a command queue.
func (h *SoftwareDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (h *SoftwareDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns the presentation format.
func (h *SoftwareDeviceHandle) SurfaceFormat() gputypes.TextureFormat { return h.format }

// AdapterInfo reports a software adapter.
func (h *SoftwareDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "compositor software", Type: gpucontext.AdapterTypeSoftware}
}

var (
	_ DeviceHandle = NullDeviceHandle{}
	_ DeviceHandle = (*SoftwareDeviceHandle)(nil)
	_ Output       = (*DeviceOutputSurface)(nil)
)
