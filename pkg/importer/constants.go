package importer

const (
	// nodes kept in memory before the mfs root is flushed
	liveCacheSize = uint64(256 << 10)

	chunkSize = 1024 * 1024

	// buffered DAG batch size
	defaultBatchSize = 100 << 20

	blocksPerPackage    = 100
	cidStringBufferSize = 64

	// single files are wrapped in a directory so their name is kept
	wrapperDirName = "folder"
)
