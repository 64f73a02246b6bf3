package backend

import (
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU atlas backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// DeviceFactory creates a new backend device instance.
type DeviceFactory func() Device

// registry holds registered backend factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]DeviceFactory)
	// Priority order for device selection (first that initializes wins).
	devicePriority = []string{BackendNative, BackendSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// A factory registered under an existing name replaces it.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the names of all registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a device instance by name, or nil if the backend is not
// registered. The device is not initialized.
func Get(name string) Device {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := factories[name]
	if !ok {
		return nil
	}
	return factory()
}

// InitDefault initializes the best available device by priority
// (native before software), falling back to the next candidate when
// Init fails, so a machine without a GPU lands on the software atlas.
// Returns ErrBackendNotAvailable when nothing can initialize.
func InitDefault() (Device, error) {
	registryMu.RLock()
	ordered := make([]DeviceFactory, 0, len(factories))
	for _, name := range devicePriority {
		if factory, ok := factories[name]; ok {
			ordered = append(ordered, factory)
		}
	}
	for name, factory := range factories {
		if !contains(devicePriority, name) {
			ordered = append(ordered, factory)
		}
	}
	registryMu.RUnlock()

	for _, factory := range ordered {
		dev := factory()
		if dev == nil {
			continue
		}
		if err := dev.Init(); err != nil {
			continue
		}
		return dev, nil
	}
	return nil, ErrBackendNotAvailable
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
