package storage

import (
	levelds "github.com/ipfs/go-ds-leveldb"
	ldbopts "github.com/syndtr/goleveldb/leveldb/opt"
)

type levelDBDatastoreConfig struct {
	path        string
	compression ldbopts.Compression
}

// LevelDBDatastoreConfig reads "path" and an optional "compression"
// ("none", "snappy" or empty for the leveldb default).
func LevelDBDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	path, ok := params["path"].(string)
	if !ok {
		return nil, &ConfigError{Field: "path", Err: errMissingOrWrongType("string")}
	}

	var compression ldbopts.Compression
	switch v := params["compression"]; v {
	case "none":
		compression = ldbopts.NoCompression
	case "snappy":
		compression = ldbopts.SnappyCompression
	case "", nil:
		compression = ldbopts.DefaultCompression
	default:
		return nil, &ConfigError{Field: "compression", Value: v, Err: errUnrecognizedValue}
	}

	return &levelDBDatastoreConfig{
		path:        path,
		compression: compression,
	}, nil
}

func (cfg *levelDBDatastoreConfig) DiskSpec() DiskSpec {
	return map[string]interface{}{
		"type": "levelds",
		"path": cfg.path,
	}
}

func (cfg *levelDBDatastoreConfig) Create(path string) (Datastore, error) {
	return levelds.NewDatastore(resolvePath(path, cfg.path), &levelds.Options{
		Compression: cfg.compression,
	})
}
