// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native provides a GPU residency backend using gogpu/wgpu.
//
// The device either brings up a standalone Vulkan device or borrows one
// from a host application through gpucontext.DeviceProvider. Tile pixels
// live in real GPU textures; uploads are fence-synchronized.
package native

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/vtex/backend"
)

// Native device errors.
var (
	// ErrNoAdapter is returned when no usable GPU adapter is found.
	ErrNoAdapter = errors.New("native: no GPU adapters found")

	// ErrNilProvider is returned when a nil device provider is given.
	ErrNilProvider = errors.New("native: device provider is nil")

	// ErrProviderHAL is returned when a provider does not expose HAL types.
	ErrProviderHAL = errors.New("native: provider does not expose HAL device and queue")
)

func init() {
	backend.Register(backend.BackendNative, func() backend.Device {
		return &Device{}
	})
}

// Device is the GPU-backed residency device. The zero value is usable;
// call Init (or construct via NewDeviceWithProvider) before handing it
// to a manager.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string

	// externalDevice is true when the device and queue are borrowed
	// from a provider and must not be destroyed on Close.
	externalDevice bool
	initialized    bool
}

var _ backend.Device = (*Device)(nil)

// NewDevice returns an uninitialized standalone device.
func NewDevice() *Device { return &Device{} }

// NewDeviceWithProvider wraps a shared GPU device from a host
// application. The provider must expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue; gogpu's context provider does.
// The returned device is already initialized; Init is a no-op.
func NewDeviceWithProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderHAL)
	}

	slogger().Debug("native: using shared GPU device")
	return &Device{
		device:         device,
		queue:          queue,
		adapterName:    "shared",
		externalDevice: true,
		initialized:    true,
	}, nil
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendNative }

// SetLogger sets the logger for the native backend package.
// Called by vtex.SetLogger to propagate logging configuration.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init brings up a standalone Vulkan device. Devices constructed via
// NewDeviceWithProvider are already initialized and Init is a no-op.
func (d *Device) Init() error {
	if d.initialized {
		return nil
	}

	be, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("native: vulkan backend not available")
	}
	instance, err := be.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open device: %w", err)
	}

	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapterName = selected.Info.Name
	d.initialized = true

	slogger().Info("native: GPU initialized", "adapter", d.adapterName)
	return nil
}

// Close releases the GPU device. Borrowed devices are detached but not
// destroyed; their owner keeps them.
func (d *Device) Close() {
	if !d.initialized {
		return
	}
	if !d.externalDevice {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.initialized = false
}

// SupportTier reports TierAtlas once initialized. The HAL does not
// expose sparse binding, so TierSparse is never offered.
func (d *Device) SupportTier() backend.Tier {
	if !d.initialized {
		return backend.TierNone
	}
	return backend.TierAtlas
}

// HalDevice returns the underlying hal.Device for collaborators that
// bind the cache and indirection textures into their own pipelines.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// NewCacheSurface creates the shared RGBA8 physical cache texture.
func (d *Device) NewCacheSurface(widthPx, heightPx int) (backend.CacheSurface, error) {
	if !d.initialized {
		return nil, backend.ErrNotInitialized
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: "vtex_cache_surface",
		Size: hal.Extent3D{
			Width:              uint32(widthPx),
			Height:             uint32(heightPx),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create cache surface: %w", err)
	}
	slogger().Debug("native: cache surface created",
		"width", widthPx, "height", heightPx)
	return &cacheSurface{dev: d, tex: tex, width: widthPx, height: heightPx}, nil
}

// NewIndirectionTexture creates an R32Uint array texture, one layer per
// virtual texture.
func (d *Device) NewIndirectionTexture(tilesX, tilesY, layers int) (backend.IndirectionTexture, error) {
	if !d.initialized {
		return nil, backend.ErrNotInitialized
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: "vtex_indirection",
		Size: hal.Extent3D{
			Width:              uint32(tilesX),
			Height:             uint32(tilesY),
			DepthOrArrayLayers: uint32(layers),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR32Uint,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create indirection texture: %w", err)
	}
	return &indirectionTexture{
		dev:    d,
		tex:    tex,
		tilesX: tilesX,
		tilesY: tilesY,
		layers: layers,
	}, nil
}

// sync blocks until the GPU drains everything queued so far, including
// WriteTexture uploads. The HAL signals its internal fences per
// submission; WaitIdle is the blocking drain over all of them.
func (d *Device) sync() error {
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	return nil
}

// transition records a single texture layout transition and waits for it.
func (d *Device) transition(tex hal.Texture, from, to gputypes.TextureUsage) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "vtex_transition",
	})
	if err != nil {
		return fmt.Errorf("native: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vtex_transition"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: from,
			NewUsage: to,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	return d.sync()
}
