package indexing

import (
	"errors"
	"time"
)

// Position is a record's place in a length-sorted index. Positions are
// contiguous from zero so they fit roaring bitmaps directly.
type Position = uint32

var (
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidBucketSize = errors.New("bucket size must be positive")
)

// Meta captures summary information for a built index.
type Meta struct {
	BuildID      string
	NumRecords   int
	BucketSize   int
	Ascending    bool
	BuildUnixSec int64
}

// NewMeta stamps a fresh build.
func NewMeta(buildID string, n, bucketSize int, ascending bool) Meta {
	return Meta{
		BuildID:      buildID,
		NumRecords:   n,
		BucketSize:   bucketSize,
		Ascending:    ascending,
		BuildUnixSec: time.Now().Unix(),
	}
}
