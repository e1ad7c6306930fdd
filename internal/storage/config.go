package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	ds "github.com/ipfs/go-datastore"
)

// Datastore is the batching datastore a repository is built on.
type Datastore interface {
	ds.Batching
}

// DatastoreConfig describes one node of a datastore tree.
type DatastoreConfig interface {
	// DiskSpec is the part of the configuration that must not change once
	// the datastore exists on disk.
	DiskSpec() DiskSpec
	// Create opens the datastore below the repository root path.
	Create(path string) (Datastore, error)
}

// ConfigFactory builds a DatastoreConfig from its spec map.
type ConfigFactory func(params map[string]interface{}) (DatastoreConfig, error)

type configRegistry struct {
	mu        sync.RWMutex
	factories map[string]ConfigFactory
}

var registry = &configRegistry{
	factories: make(map[string]ConfigFactory),
}

var registryOnce sync.Once

// ensureRegistry fills the built-in types on first use. The defaults refer
// back to AnyDatastoreConfig, so they cannot be part of the var initializer.
func ensureRegistry() {
	registryOnce.Do(func() {
		registry.mu.Lock()
		defer registry.mu.Unlock()
		registry.factories["mount"] = MountDatastoreConfig
		registry.factories["measure"] = MeasureDatastoreConfig
		registry.factories["levelds"] = LevelDBDatastoreConfig
		registry.factories["flatfs"] = FlatFsDatastoreConfig
	})
}

func (r *configRegistry) get(name string) ConfigFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[name]
}

func (r *configRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDatastoreType adds or replaces the factory for a spec "type".
func RegisterDatastoreType(name string, factory ConfigFactory) {
	ensureRegistry()

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[strings.ToLower(name)] = factory
}

// AnyDatastoreConfig dispatches on params["type"].
func AnyDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	typ, ok := params["type"].(string)
	if !ok {
		return nil, &ConfigError{Field: "type", Err: errMissingOrWrongType("string")}
	}

	ensureRegistry()
	factory := registry.get(strings.ToLower(typ))
	if factory == nil {
		return nil, &ConfigError{
			Field: "type",
			Value: typ,
			Err:   fmt.Errorf("unknown datastore type (available: %s)", strings.Join(registry.names(), ", ")),
		}
	}

	return factory(params)
}
