// Package vtex implements sparse texture residency management for the
// GoGPU ecosystem: streaming very large texture sets to a GPU with a
// bounded physical memory budget.
//
// # Overview
//
// Each registered texture is partitioned into fixed-size square tiles.
// A bounded pool of physical pages backs the tiles that are currently
// resident; an indirection table maps virtual tile coordinates to
// physical page slots so shading code can resolve texels with a single
// lookup. The design follows the classic virtual texturing scheme: one
// shared physical cache surface laid out as a fixed grid of page slots,
// plus one indirection layer per texture.
//
// # Quick Start
//
//	dev := backend.NewSoftwareDevice()
//	if err := dev.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	mgr, err := vtex.NewManager(dev, vtex.WithTileSize(256))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	id, _ := mgr.AddVirtualTexture(src) // src: *vtex.SourceTexture
//	if err := mgr.UploadAllTiles(); err != nil {
//		log.Fatal(err)
//	}
//	if err := mgr.BuildIndirectionTable(); err != nil {
//		log.Fatal(err)
//	}
//
// The shading collaborator samples via Manager.CacheHandle and
// Manager.IndirectionHandle: virtual UV -> tile coordinate ->
// indirection lookup -> page slot -> texel.
//
// # Residency protocol
//
// UploadAllTiles performs the bulk load; BuildIndirectionTable snapshots
// tile residency into the lookup array. MakeResident and Evict mutate
// individual tiles but never rebuild the table; callers re-invoke
// BuildIndirectionTable after residency changes. This two-phase protocol
// keeps the rebuild an explicit, separately testable step.
//
// # Backends
//
// The backend package abstracts the device: the native backend issues
// copies through gogpu/wgpu, the software backend keeps a CPU-side atlas
// with the identical external contract. Both are selected through the
// backend registry.
//
// # Threading
//
// A Manager is confined to a single issuing goroutine: all catalog
// mutation, page allocation and device submission happen on the
// goroutine that calls its methods. The device executes submitted
// batches asynchronously; the issuing goroutine blocks at each batch
// boundary on a fence wait.
package vtex
