package extractor

const (
	maxConcurrency = 8

	// files above this size are written by the directory walker itself
	largeFileThreshold = 100 * 1024 * 1024

	writeBufferSize = 4 * 1024 * 1024

	dirPermissions  = 0o755
	filePermissions = 0o644
)
