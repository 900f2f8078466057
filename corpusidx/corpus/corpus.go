package corpus

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/reader"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/tokenizer"

	"github.com/google/uuid"
)

// TranscriptRecord pairs an audio identifier with its encoded transcript.
type TranscriptRecord struct {
	AudioPath string
	Tokens    []int
}

// CorpusIndex is an immutable, length-sorted index of transcript records.
// It is safe for concurrent readers.
type CorpusIndex struct {
	sequenceStore
	root       string
	audioPaths []string
	paths      *indexing.PathIndex
}

// NewCorpusIndex reads the first line of every transcript file in split,
// tokenizes the transcripts and sorts the records by token count, longest
// first unless WithAscending(true). Construction is all or nothing: any
// unreadable or malformed file aborts it with an error naming the path.
// root is kept for reference only.
func NewCorpusIndex(ctx context.Context, root string, split []string, enc tokenizer.Encoder, opts ...Option) (*CorpusIndex, error) {
	o := applyOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if len(split) == 0 {
		return nil, ErrEmptySplit
	}
	if enc == nil {
		return nil, ErrNilEncoder
	}

	start := time.Now()
	transcripts, err := reader.ReadAll(ctx, split, reader.Options{Threads: o.Threads, Logger: o.Logger})
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	// split the records into aligned columns
	audioPaths := make([]string, len(transcripts))
	texts := make([]string, len(transcripts))
	sources := make([]string, len(transcripts))
	for i, tr := range transcripts {
		audioPaths[i] = tr.AudioPath
		texts[i] = tr.Text
		sources[i] = tr.Path
	}

	tokens, err := encodeAll(enc, texts, sources)
	if err != nil {
		return nil, err
	}

	lengths := make([]int, len(tokens))
	for i, seq := range tokens {
		lengths[i] = len(seq)
	}
	perm := indexing.SortByLength(lengths, o.Ascending)

	idx := newCorpusIndex(
		root,
		indexing.NewMeta(uuid.NewString(), len(perm), o.BucketSize, o.Ascending),
		permute(audioPaths, perm),
		permute(tokens, perm),
	)

	o.Logger.Info().
		Str("build_id", idx.BuildID()).
		Str("root", root).
		Int("records", idx.Len()).
		Int("bucket_size", o.BucketSize).
		Bool("ascending", o.Ascending).
		Dur("elapsed", time.Since(start)).
		Msg("corpus index built")
	return idx, nil
}

func newCorpusIndex(root string, meta indexing.Meta, audioPaths []string, tokens [][]int) *CorpusIndex {
	return &CorpusIndex{
		sequenceStore: newSequenceStore(meta, tokens),
		root:          root,
		audioPaths:    audioPaths,
		paths:         indexing.BuildPathIndex(audioPaths),
	}
}

// Root returns the corpus root the index was built for.
func (c *CorpusIndex) Root() string { return c.root }

func (c *CorpusIndex) Ascending() bool { return c.meta.Ascending }

// Get returns the bucket served for index. Without bucketing that is the
// single record at index; with bucketing it is BucketSize contiguous
// records, the start sliding left near the tail so the bucket stays full.
func (c *CorpusIndex) Get(index int) ([]TranscriptRecord, error) {
	start, end, err := c.bounds(index)
	if err != nil {
		return nil, err
	}
	out := make([]TranscriptRecord, 0, end-start)
	for pos := start; pos < end; pos++ {
		out = append(out, c.record(pos))
	}
	return out, nil
}

// Record returns the record at index, ignoring bucketing.
func (c *CorpusIndex) Record(index int) (TranscriptRecord, error) {
	if index < 0 || index >= c.Len() {
		return TranscriptRecord{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, c.Len())
	}
	return c.record(index), nil
}

func (c *CorpusIndex) record(pos int) TranscriptRecord {
	return TranscriptRecord{AudioPath: c.audioPaths[pos], Tokens: c.sequence(pos)}
}

// Lookup finds the position of an audio identifier.
func (c *CorpusIndex) Lookup(audioPath string) (int, bool) {
	pos, ok := c.paths.Lookup(audioPath)
	return int(pos), ok
}

// WithPrefix returns the positions of every audio identifier under prefix,
// such as one speaker's clip directory.
func (c *CorpusIndex) WithPrefix(prefix string) []int {
	found := c.paths.PrefixLookup(prefix)
	out := make([]int, len(found))
	for i, p := range found {
		out[i] = int(p)
	}
	return out
}

// LookupAll returns every position holding audioPath, in index order.
// Audio identifiers may repeat across transcript files.
func (c *CorpusIndex) LookupAll(audioPath string) []int {
	found := c.paths.LookupAll(audioPath)
	out := make([]int, len(found))
	for i, p := range found {
		out[i] = int(p)
	}
	return out
}

// Snapshot exports a copy of the index for PersistSnapshot.
func (c *CorpusIndex) Snapshot() *indexing.Snapshot {
	return &indexing.Snapshot{Meta: c.meta, AudioPaths: slices.Clone(c.audioPaths), Tokens: c.cloneTokens()}
}

// CorpusIndexFromSnapshot restores an index written by Snapshot. The stored
// order must still satisfy the recorded sort direction.
func CorpusIndexFromSnapshot(root string, snap *indexing.Snapshot) (*CorpusIndex, error) {
	if snap == nil || snap.AudioPaths == nil {
		return nil, fmt.Errorf("%w: snapshot holds no audio paths", indexing.ErrBadSnapshot)
	}
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}
	return newCorpusIndex(root, snap.Meta, slices.Clone(snap.AudioPaths), cloneTokens(snap.Tokens)), nil
}

// LoadCorpusIndex reads a snapshot file back into an index.
func LoadCorpusIndex(root, path string) (*CorpusIndex, error) {
	snap, err := indexing.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return CorpusIndexFromSnapshot(root, snap)
}

func checkSnapshot(snap *indexing.Snapshot) error {
	if snap.AudioPaths != nil && len(snap.AudioPaths) != len(snap.Tokens) {
		return fmt.Errorf("%w: %d audio paths for %d sequences", indexing.ErrBadSnapshot, len(snap.AudioPaths), len(snap.Tokens))
	}
	if err := indexing.ValidateBucketSize(snap.Meta.BucketSize); err != nil {
		return err
	}
	lengths := make([]int, len(snap.Tokens))
	for i, seq := range snap.Tokens {
		lengths[i] = len(seq)
	}
	if !indexing.IsSorted(lengths, snap.Meta.Ascending) {
		return fmt.Errorf("%w: records are not length-sorted", indexing.ErrBadSnapshot)
	}
	return nil
}
