package indexing

import "fmt"

// ValidateBucketSize rejects non-positive bucket sizes.
func ValidateBucketSize(bucketSize int) error {
	if bucketSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBucketSize, bucketSize)
	}
	return nil
}

// BucketBounds returns the half-open range [start, end) served for index
// in a collection of n records.
//
// With bucketSize <= 1 the range is the single record at index, and index
// must lie in [0, n). With bucketSize > 1 the start slides left to
// n-bucketSize whenever the bucket would run past the tail, so every bucket
// is full size; any index >= 0 is accepted. A collection shorter than one
// bucket is returned whole.
func BucketBounds(n, bucketSize, index int) (start, end int, err error) {
	if index < 0 || n == 0 {
		return 0, 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, n)
	}
	if bucketSize <= 1 {
		if index >= n {
			return 0, 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, n)
		}
		return index, index + 1, nil
	}
	start = max(0, min(index, n-bucketSize))
	end = min(n, start+bucketSize)
	return start, end, nil
}

// NumBuckets is the number of distinct bucket starts in a collection.
func NumBuckets(n, bucketSize int) int {
	if n == 0 {
		return 0
	}
	if bucketSize <= 1 {
		return n
	}
	return max(1, n-bucketSize+1)
}
