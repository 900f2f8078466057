package corpus

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
)

var (
	ErrEmptySplit        = errors.New("split must name at least one file")
	ErrNilEncoder        = errors.New("tokenizer cannot be nil")
	ErrInvalidThreads    = errors.New("thread count must be positive")
	ErrInvalidDrop       = errors.New("drop count cannot be negative")
	ErrIndexOutOfRange   = indexing.ErrIndexOutOfRange
	ErrInvalidBucketSize = indexing.ErrInvalidBucketSize
)

// EncodeError names the transcript a tokenizer rejected.
type EncodeError struct {
	Source string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("tokenize %s: %v", e.Source, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (o Options) validate() error {
	if err := indexing.ValidateBucketSize(o.BucketSize); err != nil {
		return err
	}
	if o.Threads <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreads, o.Threads)
	}
	if o.DropLongest < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDrop, o.DropLongest)
	}
	return nil
}
