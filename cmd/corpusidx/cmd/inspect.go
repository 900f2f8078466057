package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ZanzyTHEbar/corpusidx/corpusidx/corpus"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/indexing"

	"github.com/spf13/cobra"
)

type inspectOutput struct {
	BuildID    string                    `json:"build_id"`
	Kind       string                    `json:"kind"`
	Records    int                       `json:"records"`
	BucketSize int                       `json:"bucket_size"`
	Ascending  bool                      `json:"ascending"`
	Distinct   int                       `json:"distinct_lengths"`
	Stats      indexing.LengthStats      `json:"stats"`
	Bucket     []corpus.TranscriptRecord `json:"bucket,omitempty"`
	Sequences  [][]int                   `json:"sequences,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var index int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Show statistics of a built index, or one of its buckets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := inspectSnapshot(args[0], index)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printInspect(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Print the bucket served for this index")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func inspectSnapshot(path string, index int) (*inspectOutput, error) {
	snap, err := indexing.LoadSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	out := &inspectOutput{
		BuildID:    snap.Meta.BuildID,
		Records:    snap.Meta.NumRecords,
		BucketSize: snap.Meta.BucketSize,
		Ascending:  snap.Meta.Ascending,
	}

	if snap.AudioPaths != nil {
		idx, err := corpus.CorpusIndexFromSnapshot("", snap)
		if err != nil {
			return nil, err
		}
		out.Kind, out.Stats, out.Distinct = "corpus", idx.Stats(), idx.DistinctLengths()
		if index >= 0 {
			if out.Bucket, err = idx.Get(index); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	idx, err := corpus.TextIndexFromSnapshot("", snap)
	if err != nil {
		return nil, err
	}
	out.Kind, out.Stats, out.Distinct = "text", idx.Stats(), idx.DistinctLengths()
	if index >= 0 {
		if out.Sequences, err = idx.Get(index); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func printInspect(w io.Writer, out *inspectOutput) {
	fmt.Fprintf(w, "Build:        %s\n", out.BuildID)
	fmt.Fprintf(w, "Kind:         %s\n", out.Kind)
	fmt.Fprintf(w, "Records:      %d\n", out.Records)
	fmt.Fprintf(w, "Bucket size:  %d\n", out.BucketSize)
	fmt.Fprintf(w, "Ascending:    %t\n", out.Ascending)
	fmt.Fprintf(w, "Lengths:      min %d, max %d, mean %.2f, median %.1f, p90 %.1f\n",
		out.Stats.Min, out.Stats.Max, out.Stats.Mean, out.Stats.Median, out.Stats.P90)
	fmt.Fprintf(w, "Distinct:     %d lengths\n", out.Distinct)
	fmt.Fprintf(w, "Padding:      %.2f%%\n", out.Stats.PaddingRatio*100)

	for i, rec := range out.Bucket {
		fmt.Fprintf(w, "  [%d] %s (%d tokens) %v\n", i, rec.AudioPath, len(rec.Tokens), rec.Tokens)
	}
	for i, seq := range out.Sequences {
		fmt.Fprintf(w, "  [%d] (%d tokens) %v\n", i, len(seq), seq)
	}
}
