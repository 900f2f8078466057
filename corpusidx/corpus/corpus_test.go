package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/reader"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEncoder emits one token per whitespace-separated word; the id is the
// word's length so sequences are easy to recognise.
var wordEncoder = tokenizer.EncoderFunc(func(text string) ([]int, error) {
	words := strings.Fields(text)
	ids := make([]int, len(words))
	for i, w := range words {
		ids[i] = len(w)
	}
	return ids, nil
})

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

type fixture struct {
	root  string
	split []string
}

// newFixture writes one transcript file per entry; entry i holds a
// transcript of lengths[i] words and audio path "clips/<i>.mp3".
func newFixture(t *testing.T, lengths ...int) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{root: root}
	for i, n := range lengths {
		path := filepath.Join(root, fmt.Sprintf("%03d.tsv", i))
		line := fmt.Sprintf("client%d\tclips/%d.mp3\t%s\tup\tdown\n", i, i, words(n))
		require.NoError(t, os.WriteFile(path, []byte(line), 0o644))
		f.split = append(f.split, path)
	}
	return f
}

func audioOrder(t *testing.T, idx *CorpusIndex) []string {
	t.Helper()
	out := make([]string, idx.Len())
	for i := range out {
		rec, err := idx.Record(i)
		require.NoError(t, err)
		out[i] = rec.AudioPath
	}
	return out
}

func TestCorpusIndexWorkedExample(t *testing.T) {
	f := newFixture(t, 5, 2, 8)

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithBucketSize(2))
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []int{8, 5, 2}, idx.Lengths())
	assert.Equal(t, []string{"clips/2.mp3", "clips/0.mp3", "clips/1.mp3"}, audioOrder(t, idx))

	first, err := idx.Get(0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Len(t, first[0].Tokens, 8)
	assert.Len(t, first[1].Tokens, 5)

	second, err := idx.Get(1)
	require.NoError(t, err)
	third, err := idx.Get(2)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Len(t, second[0].Tokens, 5)
	assert.Len(t, second[1].Tokens, 2)
}

func TestCorpusIndexAscending(t *testing.T) {
	f := newFixture(t, 5, 2, 8)

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithAscending(true))
	require.NoError(t, err)

	assert.True(t, idx.Ascending())
	assert.Equal(t, []int{2, 5, 8}, idx.Lengths())
}

func TestCorpusIndexStableTies(t *testing.T) {
	f := newFixture(t, 3, 7, 3, 7, 3)

	desc, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithThreads(4))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"clips/1.mp3", "clips/3.mp3", "clips/0.mp3", "clips/2.mp3", "clips/4.mp3"},
		audioOrder(t, desc))

	asc, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithAscending(true))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"clips/0.mp3", "clips/2.mp3", "clips/4.mp3", "clips/1.mp3", "clips/3.mp3"},
		audioOrder(t, asc))
}

func TestCorpusIndexThreadCountInvariant(t *testing.T) {
	lengths := make([]int, 40)
	for i := range lengths {
		lengths[i] = (i * 7) % 11
	}
	f := newFixture(t, lengths...)

	base, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithThreads(1))
	require.NoError(t, err)
	for _, threads := range []int{2, 5, 100} {
		idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithThreads(threads))
		require.NoError(t, err)
		assert.Equal(t, audioOrder(t, base), audioOrder(t, idx), "threads=%d", threads)
		assert.True(t, indexing.IsSorted(idx.Lengths(), false))
	}
}

func TestCorpusIndexUnbucketedAccess(t *testing.T) {
	f := newFixture(t, 4, 1, 6, 2)

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.BucketSize())
	assert.Equal(t, 4, idx.NumBuckets())

	for k := 0; k < idx.Len(); k++ {
		got, err := idx.Get(k)
		require.NoError(t, err)
		rec, err := idx.Record(k)
		require.NoError(t, err)
		assert.Equal(t, []TranscriptRecord{rec}, got)
	}

	for _, k := range []int{-1, 4, 10} {
		_, err := idx.Get(k)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "k=%d", k)
		_, err = idx.Record(k)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "k=%d", k)
	}
}

func TestCorpusIndexBucketTailClamp(t *testing.T) {
	f := newFixture(t, 9, 8, 7, 6, 5, 4, 3)
	const b = 3

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithBucketSize(b))
	require.NoError(t, err)
	assert.Equal(t, 5, idx.NumBuckets())

	tail, err := idx.Get(idx.Len() - b)
	require.NoError(t, err)
	for k := 0; k < idx.Len(); k++ {
		got, err := idx.Get(k)
		require.NoError(t, err)
		require.Len(t, got, b)
		if k >= idx.Len()-b {
			assert.Equal(t, tail, got, "k=%d", k)
			continue
		}
		for j, rec := range got {
			want, err := idx.Record(k + j)
			require.NoError(t, err)
			assert.Equal(t, want, rec)
		}
	}
}

func TestCorpusIndexBucketLargerThanCorpus(t *testing.T) {
	f := newFixture(t, 2, 3)

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithBucketSize(8))
	require.NoError(t, err)

	got, err := idx.Get(1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, idx.NumBuckets())
}

func TestCorpusIndexReturnsCopies(t *testing.T) {
	f := newFixture(t, 3)

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder)
	require.NoError(t, err)

	rec, err := idx.Record(0)
	require.NoError(t, err)
	rec.Tokens[0] = 999

	again, err := idx.Record(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, again.Tokens)
}

func TestCorpusIndexSnapshotIsDetached(t *testing.T) {
	f := newFixture(t, 3)
	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder)
	require.NoError(t, err)

	snap := idx.Snapshot()
	snap.Tokens[0][0] = 999
	snap.AudioPaths[0] = "mutated"

	rec, err := idx.Record(0)
	require.NoError(t, err)
	assert.Equal(t, TranscriptRecord{AudioPath: "clips/0.mp3", Tokens: []int{1, 1, 1}}, rec)
	pos, ok := idx.Lookup("clips/0.mp3")
	assert.True(t, ok)
	assert.Equal(t, 0, pos)

	// restoring copies too, so later edits to the source snapshot are not seen
	src := idx.Snapshot()
	loaded, err := CorpusIndexFromSnapshot(f.root, src)
	require.NoError(t, err)
	src.Tokens[0][1] = 7
	src.AudioPaths[0] = "changed"

	got, err := loaded.Record(0)
	require.NoError(t, err)
	assert.Equal(t, TranscriptRecord{AudioPath: "clips/0.mp3", Tokens: []int{1, 1, 1}}, got)
}

func TestCorpusIndexMalformedLine(t *testing.T) {
	f := newFixture(t, 2, 3)
	bad := filepath.Join(f.root, "bad.tsv")
	require.NoError(t, os.WriteFile(bad, []byte("this line has no tabs\n"), 0o644))
	split := append(f.split, bad)

	idx, err := NewCorpusIndex(context.Background(), f.root, split, wordEncoder)

	require.Error(t, err)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, reader.ErrMalformedLine)
	assert.Contains(t, err.Error(), bad)
}

func TestCorpusIndexMissingFile(t *testing.T) {
	f := newFixture(t, 2)
	missing := filepath.Join(f.root, "missing.tsv")

	idx, err := NewCorpusIndex(context.Background(), f.root, append(f.split, missing), wordEncoder)

	assert.Nil(t, idx)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), missing)
}

func TestCorpusIndexEncoderError(t *testing.T) {
	f := newFixture(t, 2)
	boom := errors.New("boom")
	failing := tokenizer.EncoderFunc(func(string) ([]int, error) { return nil, boom })

	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, failing)

	assert.Nil(t, idx)
	assert.ErrorIs(t, err, boom)
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, f.split[0], encErr.Source)
}

func TestCorpusIndexInvalidConfiguration(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := NewCorpusIndex(ctx, f.root, f.split, wordEncoder, WithBucketSize(0))
	assert.ErrorIs(t, err, ErrInvalidBucketSize)

	_, err = NewCorpusIndex(ctx, f.root, f.split, wordEncoder, WithThreads(0))
	assert.ErrorIs(t, err, ErrInvalidThreads)

	_, err = NewCorpusIndex(ctx, f.root, nil, wordEncoder)
	assert.ErrorIs(t, err, ErrEmptySplit)

	_, err = NewCorpusIndex(ctx, f.root, f.split, nil)
	assert.ErrorIs(t, err, ErrNilEncoder)
}

func TestCorpusIndexLookups(t *testing.T) {
	root := t.TempDir()
	entries := map[string]int{
		"spk1/a.mp3": 4,
		"spk1/b.mp3": 2,
		"spk2/c.mp3": 6,
	}
	var split []string
	for _, name := range []string{"spk1/a.mp3", "spk1/b.mp3", "spk2/c.mp3"} {
		path := filepath.Join(root, strings.ReplaceAll(name, "/", "_")+".tsv")
		line := fmt.Sprintf("x\t%s\t%s\n", name, words(entries[name]))
		require.NoError(t, os.WriteFile(path, []byte(line), 0o644))
		split = append(split, path)
	}

	idx, err := NewCorpusIndex(context.Background(), root, split, wordEncoder)
	require.NoError(t, err)
	assert.Equal(t, root, idx.Root())

	pos, ok := idx.Lookup("spk2/c.mp3")
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	_, ok = idx.Lookup("spk3/d.mp3")
	assert.False(t, ok)

	assert.Equal(t, []int{0}, idx.LookupAll("spk2/c.mp3"))
	assert.Empty(t, idx.LookupAll("spk3/d.mp3"))

	assert.Equal(t, []int{1, 2}, idx.WithPrefix("spk1/"))
	assert.Equal(t, []uint32{1, 2}, idx.LengthRange(1, 4).ToArray())

	st := idx.Stats()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 6, st.Max)
	assert.Equal(t, 2, st.Min)
	assert.Equal(t, 3, idx.DistinctLengths())
}

func TestCorpusIndexLookupAllRepeatedAudio(t *testing.T) {
	root := t.TempDir()
	var split []string
	for i, n := range []int{2, 5, 3} {
		path := filepath.Join(root, fmt.Sprintf("%d.tsv", i))
		line := fmt.Sprintf("x\tclips/same.mp3\t%s\n", words(n))
		require.NoError(t, os.WriteFile(path, []byte(line), 0o644))
		split = append(split, path)
	}

	idx, err := NewCorpusIndex(context.Background(), root, split, wordEncoder)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, idx.LookupAll("clips/same.mp3"))
	pos, ok := idx.Lookup("clips/same.mp3")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestCorpusIndexConcurrentReaders(t *testing.T) {
	f := newFixture(t, 5, 1, 4, 2, 3)
	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithBucketSize(2))
	require.NoError(t, err)

	want, err := idx.Get(3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < idx.Len(); k++ {
				got, err := idx.Get(k)
				if assert.NoError(t, err) && k >= 3 {
					assert.Equal(t, want, got)
				}
			}
		}()
	}
	wg.Wait()
}

func TestCorpusIndexSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t, 5, 2, 8, 2)
	idx, err := NewCorpusIndex(context.Background(), f.root, f.split, wordEncoder, WithBucketSize(2))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "train.cidx")
	require.NoError(t, indexing.PersistSnapshot(path, idx.Snapshot()))

	loaded, err := LoadCorpusIndex(f.root, path)
	require.NoError(t, err)
	assert.Equal(t, idx.BuildID(), loaded.BuildID())
	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, idx.BucketSize(), loaded.BucketSize())
	for k := 0; k < idx.Len(); k++ {
		want, err := idx.Get(k)
		require.NoError(t, err)
		got, err := loaded.Get(k)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = CorpusIndexFromSnapshot(f.root, &indexing.Snapshot{Tokens: [][]int{{1}}})
	assert.ErrorIs(t, err, indexing.ErrBadSnapshot)

	unsorted := &indexing.Snapshot{
		Meta:       indexing.Meta{BucketSize: 1},
		AudioPaths: []string{"a", "b"},
		Tokens:     [][]int{{1}, {1, 2}},
	}
	_, err = CorpusIndexFromSnapshot(f.root, unsorted)
	assert.ErrorIs(t, err, indexing.ErrBadSnapshot)
}

func TestCorpusIndexFromSnapshotRejectsMismatchedColumns(t *testing.T) {
	for name, snap := range map[string]*indexing.Snapshot{
		"fewer paths": {Meta: indexing.Meta{BucketSize: 1}, AudioPaths: []string{"a"}, Tokens: [][]int{{1, 2}, {1}}},
		"more paths":  {Meta: indexing.Meta{BucketSize: 1}, AudioPaths: []string{"a", "b"}, Tokens: [][]int{{1}}},
	} {
		t.Run(name, func(t *testing.T) {
			idx, err := CorpusIndexFromSnapshot("", snap)
			assert.Nil(t, idx)
			assert.ErrorIs(t, err, indexing.ErrBadSnapshot)
		})
	}

	_, err := CorpusIndexFromSnapshot("", nil)
	assert.ErrorIs(t, err, indexing.ErrBadSnapshot)
}
