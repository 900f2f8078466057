package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	internal "github.com/ZanzyTHEbar/corpusidx/corpusidx"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/config"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/corpus"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/tokenizer"

	"github.com/spf13/cobra"
)

type buildFlags struct {
	pattern     string
	bucketSize  int
	ascending   bool
	threads     int
	dropLongest int
	text        bool
	lm          bool
	vocab       string
	mode        string
	out         string
}

func newBuildCmd() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Build a length-sorted index over a transcript corpus",
		Long: `Resolve the transcript files under root, read the first line of each,
tokenize the transcripts and sort them by token count.

Flags override the matching config keys. With --out the built index is
written as a snapshot that 'corpusidx inspect' can read back.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Corpus.Root = args[0]
			}
			applyBuildFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBuild(cmd, cfg, f)
		},
	}

	cmd.Flags().StringVar(&f.pattern, "pattern", internal.DefaultSplitPattern, "Glob of transcript files relative to root")
	cmd.Flags().IntVar(&f.bucketSize, "bucket-size", internal.DefaultBucketSize, "Records returned per access (1 disables bucketing)")
	cmd.Flags().BoolVar(&f.ascending, "ascending", false, "Sort shortest first")
	cmd.Flags().IntVar(&f.threads, "threads", internal.DefaultReadFileThreads, "File-read worker count")
	cmd.Flags().IntVar(&f.dropLongest, "drop-longest", 0, "Drop the N longest sentences (text indices)")
	cmd.Flags().BoolVar(&f.text, "text", false, "Build a text-only index from the transcript files")
	cmd.Flags().BoolVar(&f.lm, "lm", false, "Build a text-only index from plain-text files, one sentence per line")
	cmd.Flags().StringVar(&f.vocab, "vocab", "", "Tokenizer vocabulary file")
	cmd.Flags().StringVar(&f.mode, "mode", internal.DefaultTokenizerMode, "Tokenizer mode: wordpiece, word or char")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write the built index to this snapshot file, or to "+internal.DefaultSnapshotName+" inside a directory")
	cmd.MarkFlagsMutuallyExclusive("text", "lm")

	return cmd
}

func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, f buildFlags) {
	flags := cmd.Flags()
	if flags.Changed("pattern") {
		cfg.Corpus.Pattern = f.pattern
	}
	if flags.Changed("bucket-size") {
		cfg.Index.BucketSize = f.bucketSize
	}
	if flags.Changed("ascending") {
		cfg.Index.Ascending = f.ascending
	}
	if flags.Changed("threads") {
		cfg.Reader.Threads = f.threads
	}
	if flags.Changed("drop-longest") {
		cfg.Index.DropLongest = f.dropLongest
	}
	if flags.Changed("vocab") {
		cfg.Tokenizer.Vocab = f.vocab
	}
	if flags.Changed("mode") {
		cfg.Tokenizer.Mode = f.mode
	}
	if flags.Changed("out") {
		cfg.Snapshot.Path = f.out
	}
}

func runBuild(cmd *cobra.Command, cfg *config.Config, f buildFlags) error {
	ctx := cmd.Context()

	enc, err := tokenizer.Load(tokenizer.Config{
		Mode:          cfg.Tokenizer.Mode,
		Vocab:         cfg.Tokenizer.Vocab,
		MaxSeqLen:     cfg.Tokenizer.MaxSeqLen,
		SpecialTokens: cfg.Tokenizer.SpecialTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to load tokenizer: %w", err)
	}

	split, err := corpus.ResolveSplit(cfg.Corpus.Root, cfg.Corpus.Pattern, cfg.IgnorePath())
	if err != nil {
		return err
	}
	logger.Debug().Int("files", len(split)).Str("root", cfg.Corpus.Root).Msg("split resolved")

	opts := []corpus.Option{
		corpus.WithBucketSize(cfg.Index.BucketSize),
		corpus.WithAscending(cfg.Index.Ascending),
		corpus.WithThreads(cfg.Reader.Threads),
		corpus.WithDropLongest(cfg.Index.DropLongest),
		corpus.WithLogger(logger),
	}

	var (
		snap  *indexing.Snapshot
		stats indexing.LengthStats
		name  string
	)
	switch {
	case f.lm:
		idx, err := corpus.NewTextIndexFromCorpus(ctx, cfg.Corpus.Root, split, enc, opts...)
		if err != nil {
			return err
		}
		snap, stats, name = idx.Snapshot(), idx.Stats(), "lm"
	case f.text:
		idx, err := corpus.NewTextIndexFromFiles(ctx, cfg.Corpus.Root, split, enc, opts...)
		if err != nil {
			return err
		}
		snap, stats, name = idx.Snapshot(), idx.Stats(), "text"
	default:
		idx, err := corpus.NewCorpusIndex(ctx, cfg.Corpus.Root, split, enc, opts...)
		if err != nil {
			return err
		}
		snap, stats, name = idx.Snapshot(), idx.Stats(), "corpus"
	}

	corpus.LogStats(logger, name, stats)
	fmt.Fprintf(cmd.OutOrStdout(), "%s index %s: %d records, %d buckets of %d\n",
		name, snap.Meta.BuildID, snap.Meta.NumRecords,
		indexing.NumBuckets(snap.Meta.NumRecords, snap.Meta.BucketSize), snap.Meta.BucketSize)

	if cfg.Snapshot.Path == "" {
		return nil
	}
	out, err := snapshotTarget(cfg.Snapshot.Path)
	if err != nil {
		return err
	}
	if err := indexing.PersistSnapshot(out, snap); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", out, err)
	}
	logger.Info().Str("path", out).Msg("snapshot written")
	return nil
}

// snapshotTarget resolves the snapshot file; a directory gets the default
// snapshot name inside it.
func snapshotTarget(path string) (string, error) {
	out, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot path: %w", err)
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		out = filepath.Join(out, internal.DefaultSnapshotName)
	}
	return out, nil
}
