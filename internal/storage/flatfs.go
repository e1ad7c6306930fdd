package storage

import (
	flatfs "github.com/ipfs/go-ds-flatfs"
)

type flatFsDatastoreConfig struct {
	path     string
	shardFun *flatfs.ShardIdV1
	sync     bool
}

// FlatFsDatastoreConfig reads "path", "shardFunc" and "sync".
func FlatFsDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	path, ok := params["path"].(string)
	if !ok {
		return nil, &ConfigError{Field: "path", Err: errMissingOrWrongType("string")}
	}

	shardFunc, ok := params["shardFunc"].(string)
	if !ok {
		return nil, &ConfigError{Field: "shardFunc", Err: errMissingOrWrongType("string")}
	}

	shardFun, err := flatfs.ParseShardFunc(shardFunc)
	if err != nil {
		return nil, &ConfigError{Field: "shardFunc", Value: shardFunc, Err: err}
	}

	sync, ok := params["sync"].(bool)
	if !ok {
		return nil, &ConfigError{Field: "sync", Err: errMissingOrWrongType("bool")}
	}

	return &flatFsDatastoreConfig{
		path:     path,
		shardFun: shardFun,
		sync:     sync,
	}, nil
}

func (cfg *flatFsDatastoreConfig) DiskSpec() DiskSpec {
	return map[string]interface{}{
		"type":      "flatfs",
		"path":      cfg.path,
		"shardFunc": cfg.shardFun.String(),
	}
}

func (cfg *flatFsDatastoreConfig) Create(path string) (Datastore, error) {
	return flatfs.CreateOrOpen(resolvePath(path, cfg.path), cfg.shardFun, cfg.sync)
}
