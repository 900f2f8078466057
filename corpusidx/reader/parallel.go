package reader

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Options tunes the parallel read step.
type Options struct {
	Threads int
	Logger  zerolog.Logger
}

// EffectiveThreads caps the worker count at the number of files so no
// worker sits idle. It never returns less than one.
func EffectiveThreads(configured, files int) int {
	n := min(configured, files)
	if n < 1 {
		return 1
	}
	return n
}

// ReadAll reads the first line of every path on a bounded worker pool.
// Output order matches input order for any thread count. The first failure
// cancels outstanding reads and is returned; no partial result is produced.
func ReadAll(ctx context.Context, paths []string, opts Options) ([]Transcript, error) {
	results := make([]Transcript, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	workers := EffectiveThreads(opts.Threads, len(paths))
	start := time.Now()

	p := pool.New().
		WithMaxGoroutines(workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := ReadTranscript(path)
			if err != nil {
				return err
			}
			// each worker owns exactly one slot
			results[i] = tr
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		opts.Logger.Error().Err(err).Int("files", len(paths)).Msg("transcript read failed")
		return nil, err
	}

	opts.Logger.Debug().
		Int("files", len(paths)).
		Int("workers", workers).
		Dur("elapsed", time.Since(start)).
		Msg("transcripts read")
	return results, nil
}
