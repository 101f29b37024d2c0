package folderkit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// HostFactory creates the host file system a Workspace runs on.
type HostFactory func(cfg *Config) (afero.Fs, error)

var (
	hostFactories = make(map[string]HostFactory)
	factoryMutex  sync.RWMutex
)

// RegisterHost registers a host factory under name. Driver packages call
// it from init.
func RegisterHost(name string, factory HostFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	hostFactories[name] = factory
}

// RegisteredHosts lists the registered host names in order.
func RegisteredHosts() []string {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()
	names := make([]string, 0, len(hostFactories))
	for name := range hostFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateHost creates a host instance from config
func CreateHost(cfg *Config) (afero.Fs, error) {
	factoryMutex.RLock()
	factory, exists := hostFactories[cfg.Host]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: host %s not registered", ErrNotSupported, cfg.Host)
	}

	return factory(cfg)
}
