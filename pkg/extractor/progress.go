package extractor

import (
	"context"
	"io"
	"sync/atomic"
)

// ProgressFunc receives the bytes written so far, the total and the relative
// path of the file being written.
type ProgressFunc func(completed, total int64, current string)

type progressTracker struct {
	total     int64
	completed atomic.Int64
	callback  ProgressFunc
}

func newProgressTracker(total int64, callback ProgressFunc) *progressTracker {
	return &progressTracker{total: total, callback: callback}
}

func (pt *progressTracker) update(n int64, name string) {
	completed := pt.completed.Add(n)
	if pt.callback != nil {
		pt.callback(completed, pt.total, name)
	}
}

// extractReader stops at the first read after ctx is done.
type extractReader struct {
	ctx        context.Context
	r          io.Reader
	onProgress func(int64)
}

func (er *extractReader) Read(p []byte) (int, error) {
	if err := er.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := er.r.Read(p)
	if n > 0 && er.onProgress != nil {
		er.onProgress(int64(n))
	}
	return n, err
}
