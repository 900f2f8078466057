package corpus

import (
	"slices"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/tokenizer"

	roaring "github.com/RoaringBitmap/roaring"
)

// sequenceStore is the length-sorted token column and bucket policy that
// CorpusIndex and TextIndex share. Read-only after construction.
type sequenceStore struct {
	meta     indexing.Meta
	tokens   [][]int
	lengths  []int
	byLength *indexing.LengthBitmaps
}

func newSequenceStore(meta indexing.Meta, tokens [][]int) sequenceStore {
	lengths := make([]int, len(tokens))
	for i, seq := range tokens {
		lengths[i] = len(seq)
	}
	meta.NumRecords = len(tokens)
	return sequenceStore{
		meta:     meta,
		tokens:   tokens,
		lengths:  lengths,
		byLength: indexing.BuildLengthBitmaps(lengths),
	}
}

func (s *sequenceStore) Len() int { return len(s.tokens) }

func (s *sequenceStore) BucketSize() int { return s.meta.BucketSize }

func (s *sequenceStore) NumBuckets() int { return indexing.NumBuckets(len(s.tokens), s.meta.BucketSize) }

// BuildID identifies the build this index came from.
func (s *sequenceStore) BuildID() string { return s.meta.BuildID }

func (s *sequenceStore) Meta() indexing.Meta { return s.meta }

// Lengths returns a copy of the token lengths in index order.
func (s *sequenceStore) Lengths() []int { return slices.Clone(s.lengths) }

// LengthRange returns the positions whose token length lies in [minLen, maxLen].
func (s *sequenceStore) LengthRange(minLen, maxLen int) *roaring.Bitmap {
	return s.byLength.Range(minLen, maxLen)
}

func (s *sequenceStore) Stats() indexing.LengthStats {
	return indexing.ComputeStats(s.lengths, s.meta.BucketSize)
}

func (s *sequenceStore) bounds(index int) (int, int, error) {
	return indexing.BucketBounds(len(s.tokens), s.meta.BucketSize, index)
}

func (s *sequenceStore) sequence(pos int) []int { return slices.Clone(s.tokens[pos]) }

// DistinctLengths reports how many different token lengths the index holds.
func (s *sequenceStore) DistinctLengths() int { return s.byLength.Lengths() }

func (s *sequenceStore) cloneTokens() [][]int { return cloneTokens(s.tokens) }

// cloneTokens deep-copies a token column so the index never aliases
// caller-held slices.
func cloneTokens(tokens [][]int) [][]int {
	out := make([][]int, len(tokens))
	for i, seq := range tokens {
		out[i] = slices.Clone(seq)
	}
	return out
}

// encodeAll tokenizes texts in order; sources name each text in errors.
func encodeAll(enc tokenizer.Encoder, texts, sources []string) ([][]int, error) {
	out := make([][]int, len(texts))
	for i, text := range texts {
		ids, err := enc.Encode(text)
		if err != nil {
			return nil, &EncodeError{Source: sources[i], Err: err}
		}
		out[i] = ids
	}
	return out, nil
}

// permute reorders col by perm, where perm[i] is the source of slot i.
func permute[T any](col []T, perm []int) []T {
	out := make([]T, len(perm))
	for i, p := range perm {
		out[i] = col[p]
	}
	return out
}
