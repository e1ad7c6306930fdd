// Package storage is the on-disk datastore of a filesan repository.
//
// Blocks live in a flatfs datastore mounted at /blocks, everything else in
// leveldb at /. Both are wrapped in go-ds-measure. The layout is written to
// datastore_spec when the repository is created and checked on every open.
package storage

import (
	"bytes"
	"encoding/json"
)

// DiskSpec is the JSON form of a datastore configuration.
type DiskSpec map[string]interface{}

// DefaultDiskSpec is the layout of a new repository.
func DefaultDiskSpec() DiskSpec {
	return map[string]interface{}{
		"type": "mount",
		"mounts": []interface{}{
			map[string]interface{}{
				"mountpoint": "/blocks",
				"type":       "measure",
				"prefix":     "flatfs.datastore",
				"child": map[string]interface{}{
					"type":      "flatfs",
					"path":      "blocks",
					"sync":      true,
					"shardFunc": "/repo/flatfs/shard/v1/next-to-last/2",
				},
			},
			map[string]interface{}{
				"mountpoint": "/",
				"type":       "measure",
				"prefix":     "leveldb.datastore",
				"child": map[string]interface{}{
					"type":        "levelds",
					"path":        "datastore",
					"compression": "none",
				},
			},
		},
	}
}

// Bytes encodes the spec. Map keys are sorted by encoding/json, so equal
// specs encode identically.
func (s DiskSpec) Bytes() []byte {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}

	return bytes.TrimSpace(b)
}

func (s DiskSpec) String() string {
	return string(s.Bytes())
}
