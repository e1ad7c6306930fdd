package importer

import (
	"io"
	"sync/atomic"
)

// ProgressFunc receives the bytes read so far, the total and the stored path
// of the file being read.
type ProgressFunc func(completed, total int64, current string)

type progressTracker struct {
	processed   atomic.Int64
	total       int64
	interrupted atomic.Bool
	callback    ProgressFunc
}

func newProgressTracker(total int64, callback ProgressFunc) *progressTracker {
	return &progressTracker{total: total, callback: callback}
}

func (pt *progressTracker) update(n int64, name string) {
	completed := pt.processed.Add(n)
	if pt.callback != nil {
		pt.callback(completed, pt.total, name)
	}
}

func (pt *progressTracker) interrupt() {
	pt.interrupted.Store(true)
}

func (pt *progressTracker) isInterrupted() bool {
	return pt.interrupted.Load()
}

type progressReader struct {
	reader     io.Reader
	onProgress func(int64)
}

func newProgressReader(reader io.Reader, onProgress func(int64)) *progressReader {
	return &progressReader{reader: reader, onProgress: onProgress}
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}
