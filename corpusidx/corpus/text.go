package corpus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/reader"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/tokenizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TextIndex is the audio-free counterpart of CorpusIndex: token sequences
// only, always sorted longest first.
type TextIndex struct {
	sequenceStore
	root string
}

// NewTextIndex tokenizes sentences and sorts them by token count, longest
// first. WithAscending is ignored.
func NewTextIndex(sentences []string, enc tokenizer.Encoder, opts ...Option) (*TextIndex, error) {
	o := applyOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, ErrEmptySplit
	}
	if enc == nil {
		return nil, ErrNilEncoder
	}

	sources := make([]string, len(sentences))
	for i := range sentences {
		sources[i] = "sentence " + strconv.Itoa(i)
	}
	return buildTextIndex("", sentences, sources, enc, o)
}

// NewTextIndexFromFiles reads split with the transcript first-line rule and
// indexes the transcript column alone.
func NewTextIndexFromFiles(ctx context.Context, root string, split []string, enc tokenizer.Encoder, opts ...Option) (*TextIndex, error) {
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

	transcripts, err := reader.ReadAll(ctx, split, reader.Options{Threads: o.Threads, Logger: o.Logger})
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	texts := make([]string, len(transcripts))
	sources := make([]string, len(transcripts))
	for i, tr := range transcripts {
		texts[i] = tr.Text
		sources[i] = tr.Path
	}
	return buildTextIndex(root, texts, sources, enc, o)
}

// NewTextIndexFromCorpus indexes plain-text LM corpora with one sentence per
// line, such as a normalized LM text dump.
func NewTextIndexFromCorpus(ctx context.Context, root string, files []string, enc tokenizer.Encoder, opts ...Option) (*TextIndex, error) {
	o := applyOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrEmptySplit
	}
	if enc == nil {
		return nil, ErrNilEncoder
	}

	sentences, err := reader.ReadSentences(ctx, files, reader.Options{Threads: o.Threads, Logger: o.Logger})
	if err != nil {
		return nil, fmt.Errorf("read text corpus: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no sentences in %d files", ErrEmptySplit, len(files))
	}
	sources := make([]string, len(sentences))
	for i := range sentences {
		sources[i] = "sentence " + strconv.Itoa(i)
	}
	return buildTextIndex(root, sentences, sources, enc, o)
}

func buildTextIndex(root string, texts, sources []string, enc tokenizer.Encoder, o Options) (*TextIndex, error) {
	start := time.Now()
	tokens, err := encodeAll(enc, texts, sources)
	if err != nil {
		return nil, err
	}

	lengths := make([]int, len(tokens))
	for i, seq := range tokens {
		lengths[i] = len(seq)
	}
	sorted := permute(tokens, indexing.SortByLength(lengths, false))

	dropped := min(o.DropLongest, len(sorted))
	sorted = sorted[dropped:]

	idx := &TextIndex{
		sequenceStore: newSequenceStore(indexing.NewMeta(uuid.NewString(), len(sorted), o.BucketSize, false), sorted),
		root:          root,
	}

	o.Logger.Info().
		Str("build_id", idx.BuildID()).
		Int("sentences", idx.Len()).
		Int("dropped_longest", dropped).
		Int("bucket_size", o.BucketSize).
		Dur("elapsed", time.Since(start)).
		Msg("text index built")
	if idx.Len() == 0 {
		o.Logger.Warn().Int("dropped_longest", dropped).Msg("text index is empty after dropping longest sentences")
	}
	return idx, nil
}

// Root returns the corpus root, empty for in-memory sentences.
func (t *TextIndex) Root() string { return t.root }

// Get returns the bucket served for index, following the same single and
// sliding-clamp rules as CorpusIndex.Get.
func (t *TextIndex) Get(index int) ([][]int, error) {
	start, end, err := t.bounds(index)
	if err != nil {
		return nil, err
	}
	out := make([][]int, 0, end-start)
	for pos := start; pos < end; pos++ {
		out = append(out, t.sequence(pos))
	}
	return out, nil
}

// Sequence returns the token sequence at index, ignoring bucketing.
func (t *TextIndex) Sequence(index int) ([]int, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, t.Len())
	}
	return t.sequence(index), nil
}

// Snapshot exports a copy of the index for PersistSnapshot.
func (t *TextIndex) Snapshot() *indexing.Snapshot {
	return &indexing.Snapshot{Meta: t.meta, Tokens: t.cloneTokens()}
}

// TextIndexFromSnapshot restores a text index. Corpus snapshots are accepted
// too; their audio column is dropped.
func TextIndexFromSnapshot(root string, snap *indexing.Snapshot) (*TextIndex, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", indexing.ErrBadSnapshot)
	}
	if snap.Meta.Ascending {
		return nil, fmt.Errorf("%w: text indices are sorted longest first", indexing.ErrBadSnapshot)
	}
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}
	return &TextIndex{sequenceStore: newSequenceStore(snap.Meta, cloneTokens(snap.Tokens)), root: root}, nil
}

// LogStats writes the length summary of any index at info level.
func LogStats(log zerolog.Logger, name string, st indexing.LengthStats) {
	log.Info().
		Str("index", name).
		Int("count", st.Count).
		Int("min_len", st.Min).
		Int("max_len", st.Max).
		Float64("mean_len", st.Mean).
		Float64("stddev_len", st.StdDev).
		Float64("median_len", st.Median).
		Float64("p90_len", st.P90).
		Float64("padding_ratio", st.PaddingRatio).
		Msg("length stats")
}
