package corpus

import (
	internal "github.com/ZanzyTHEbar/corpusidx/corpusidx"

	"github.com/rs/zerolog"
)

// Options configure index construction.
type Options struct {
	BucketSize  int
	Ascending   bool
	Threads     int
	DropLongest int
	Logger      zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		BucketSize: internal.DefaultBucketSize,
		Threads:    internal.DefaultReadFileThreads,
		Logger:     zerolog.Nop(),
	}
}

func applyOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBucketSize sets how many records one Get returns. 1 disables bucketing.
func WithBucketSize(n int) Option { return func(o *Options) { o.BucketSize = n } }

// WithAscending sorts shortest first. Text indices ignore it.
func WithAscending(asc bool) Option { return func(o *Options) { o.Ascending = asc } }

// WithThreads caps the file-read worker pool.
func WithThreads(n int) Option { return func(o *Options) { o.Threads = n } }

// WithDropLongest removes the n longest sentences from a text index.
func WithDropLongest(n int) Option { return func(o *Options) { o.DropLongest = n } }

func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }
