// Package backend abstracts the graphics device underneath the vtex
// residency manager.
//
// A Device exposes a support tier, creates the shared physical cache
// surface and the indirection texture, and executes batched tile copies
// with explicit fence synchronization. Two implementations ship with
// vtex: the native backend (backend/native) issues real device copies
// through gogpu/wgpu, and the software backend keeps a CPU-side atlas.
// The external contract is identical either way: one flat cache surface
// covering all page slots plus one indirection lookup per texture.
//
// Backends register themselves via Register, typically from an init
// function, and are selected by name via Get or by priority via
// InitDefault.
package backend
