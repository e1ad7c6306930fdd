package storage

import (
	measure "github.com/ipfs/go-ds-measure"
)

type measureDatastoreConfig struct {
	child  DatastoreConfig
	prefix string
}

// MeasureDatastoreConfig wraps "child" with metrics named by "prefix".
func MeasureDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	childField, ok := params["child"].(map[string]interface{})
	if !ok {
		return nil, &ConfigError{Field: "child", Err: errMissingOrWrongType("map")}
	}

	child, err := AnyDatastoreConfig(childField)
	if err != nil {
		return nil, err
	}

	prefix, ok := params["prefix"].(string)
	if !ok {
		return nil, &ConfigError{Field: "prefix", Err: errMissingOrWrongType("string")}
	}

	return &measureDatastoreConfig{child: child, prefix: prefix}, nil
}

// DiskSpec is the child's; metrics do not change the on-disk format.
func (cfg *measureDatastoreConfig) DiskSpec() DiskSpec {
	return cfg.child.DiskSpec()
}

func (cfg *measureDatastoreConfig) Create(path string) (Datastore, error) {
	child, err := cfg.child.Create(path)
	if err != nil {
		return nil, err
	}

	return measure.New(cfg.prefix, child), nil
}
