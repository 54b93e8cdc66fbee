package ui

import (
	"context"
	"errors"
	"image"
	"runtime"
	"sync"
)

var errSinkClosed = errors.New("sink already closed")

type frameJob struct {
	frame uint64
	img   image.Image
}

// ParallelSink spreads frames over a pool of workers running fn (runtime.NumCPU() workers if workers <= 0).
// The returned sink must be called from a single goroutine. wait stops accepting frames, waits for the queued ones
// and returns the first error of fn. After a failure the sink rejects new frames with that error.
func ParallelSink(ctx context.Context, workers int, fn FrameSink) (sink FrameSink, wait func() error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancelCause(ctx)

	// Spawn the workers that will process 1 frame at a time
	jobs := make(chan frameJob, workers)
	workerWg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for job := range jobs { // Closed by wait
				if ctx.Err() != nil {
					continue // Drain after the first failure
				}
				if err := fn(job.frame, job.img); err != nil {
					cancel(err)
				}
			}
		}()
	}

	closed := false
	var waitErr error
	sink = func(frame uint64, img image.Image) error {
		if closed {
			return errSinkClosed
		}
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case jobs <- frameJob{frame: frame, img: img}:
			return nil
		}
	}
	wait = func() error {
		if closed {
			return waitErr
		}
		closed = true
		close(jobs)
		workerWg.Wait()
		waitErr = context.Cause(ctx)
		cancel(nil)
		return waitErr
	}
	return sink, wait
}
