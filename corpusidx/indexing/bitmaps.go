package indexing

import (
	roaring "github.com/RoaringBitmap/roaring"
)

// LengthBitmaps holds roaring bitmaps of positions keyed by token length.
// Example: 12 -> bitmap of every position whose sequence has 12 tokens.
type LengthBitmaps struct {
	byLen map[int]*roaring.Bitmap
}

func newLengthBitmaps() *LengthBitmaps {
	return &LengthBitmaps{byLen: make(map[int]*roaring.Bitmap)}
}

// BuildLengthBitmaps indexes lengths, where lengths[i] belongs to position i.
func BuildLengthBitmaps(lengths []int) *LengthBitmaps {
	lb := newLengthBitmaps()
	for pos, n := range lengths {
		lb.add(n, Position(pos))
	}
	lb.optimize()
	return lb
}

func (lb *LengthBitmaps) add(length int, pos Position) {
	bm, ok := lb.byLen[length]
	if !ok {
		bm = roaring.New()
		lb.byLen[length] = bm
	}
	bm.Add(pos)
}

// Range returns the union of all positions with length in [minLen, maxLen].
// The result is a fresh bitmap the caller may modify.
func (lb *LengthBitmaps) Range(minLen, maxLen int) *roaring.Bitmap {
	res := roaring.New()
	if minLen > maxLen {
		return res
	}
	for n, bm := range lb.byLen {
		if n >= minLen && n <= maxLen {
			res.Or(bm)
		}
	}
	return res
}

// Exact returns a copy of the positions with exactly length tokens.
func (lb *LengthBitmaps) Exact(length int) *roaring.Bitmap {
	return lb.clone(lb.byLen[length])
}

// Lengths reports how many distinct lengths are indexed.
func (lb *LengthBitmaps) Lengths() int { return len(lb.byLen) }

func (lb *LengthBitmaps) optimize() {
	for _, bm := range lb.byLen {
		bm.RunOptimize()
	}
}

func (lb *LengthBitmaps) clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	return b.Clone()
}
