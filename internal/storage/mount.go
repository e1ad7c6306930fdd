package storage

import (
	"sort"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/mount"
)

type mountDatastoreConfig struct {
	mounts []mountItem
}

type mountItem struct {
	ds     DatastoreConfig
	prefix ds.Key
}

// MountDatastoreConfig reads "mounts", a list of child specs that each carry
// a "mountpoint".
func MountDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	mounts, ok := params["mounts"].([]interface{})
	if !ok {
		return nil, &ConfigError{Field: "mounts", Err: errMissingOrWrongType("array")}
	}

	var cfg mountDatastoreConfig
	for _, item := range mounts {
		mountParams, ok := item.(map[string]interface{})
		if !ok {
			return nil, &ConfigError{Field: "mounts", Value: item, Err: errMissingOrWrongType("map")}
		}

		child, err := AnyDatastoreConfig(mountParams)
		if err != nil {
			return nil, err
		}

		prefix, ok := mountParams["mountpoint"].(string)
		if !ok {
			return nil, &ConfigError{Field: "mountpoint", Value: mountParams["mountpoint"], Err: errMissingOrWrongType("string")}
		}

		cfg.mounts = append(cfg.mounts, mountItem{
			ds:     child,
			prefix: ds.NewKey(prefix),
		})
	}

	// Longest prefix first, so the spec string does not depend on input order.
	sort.Slice(cfg.mounts, func(i, j int) bool {
		return cfg.mounts[i].prefix.String() > cfg.mounts[j].prefix.String()
	})

	return &cfg, nil
}

func (cfg *mountDatastoreConfig) DiskSpec() DiskSpec {
	mounts := make([]interface{}, len(cfg.mounts))
	for i, m := range cfg.mounts {
		spec := m.ds.DiskSpec()
		if spec == nil {
			spec = make(map[string]interface{})
		}
		spec["mountpoint"] = m.prefix.String()
		mounts[i] = spec
	}

	return map[string]interface{}{
		"type":   "mount",
		"mounts": mounts,
	}
}

func (cfg *mountDatastoreConfig) Create(path string) (Datastore, error) {
	mounts := make([]mount.Mount, 0, len(cfg.mounts))
	for _, m := range cfg.mounts {
		store, err := m.ds.Create(path)
		if err != nil {
			for _, opened := range mounts {
				_ = opened.Datastore.Close()
			}
			return nil, err
		}

		mounts = append(mounts, mount.Mount{Prefix: m.prefix, Datastore: store})
	}

	return mount.New(mounts), nil
}
