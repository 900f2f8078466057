package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps sugarme/tokenizer WordPiece (BERT-style)
type SugarWordPiece struct {
	t       *tk.Tokenizer
	special bool
}

// NewSugarWordPiece loads vocab.txt and builds a BERT WordPiece tokenizer.
// vocabPath may point at the file itself or at a directory holding vocab.txt.
// maxSeq <= 0 disables truncation. With special set, [CLS] and [SEP] wrap
// every encoded transcript and count towards maxSeq.
func NewSugarWordPiece(vocabPath string, maxSeq int, special bool) (*SugarWordPiece, error) {
	if special && maxSeq > 0 && maxSeq <= 2 {
		return nil, fmt.Errorf("max sequence length %d leaves no room besides [CLS] and [SEP]", maxSeq)
	}
	vocabFile, err := resolveVocab(vocabPath)
	if err != nil {
		return nil, err
	}

	wp, err := wordpiece.NewWordPieceFromFile(vocabFile, "[UNK]")
	if err != nil {
		return nil, fmt.Errorf("failed to load wordpiece vocab %s: %w", vocabFile, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	if special {
		clsID, sepID, err := specialIDs(vocabFile)
		if err != nil {
			return nil, err
		}
		t.WithPostProcessor(processor.NewBertProcessing(
			processor.PostToken{Value: "[SEP]", Id: sepID},
			processor.PostToken{Value: "[CLS]", Id: clsID},
		))
	}
	if maxSeq > 0 {
		// single sequences only; LongestFirst expects a pair
		t.WithTruncation(&tk.TruncationParams{MaxLength: maxSeq, Strategy: tk.OnlyFirst})
	}

	return &SugarWordPiece{t: t, special: special}, nil
}

// Encode returns the unpadded id sequence of text.
func (s *SugarWordPiece) Encode(text string) ([]int, error) {
	enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), s.special)
	if err != nil {
		return nil, err
	}
	ids := enc.GetIds()
	out := make([]int, len(ids))
	copy(out, ids)
	return out, nil
}

func resolveVocab(vocabPath string) (string, error) {
	fi, err := os.Stat(vocabPath)
	if err != nil {
		return "", fmt.Errorf("vocab not found at %s: %w", vocabPath, err)
	}
	if !fi.IsDir() {
		return vocabPath, nil
	}
	vocabFile := filepath.Join(vocabPath, "vocab.txt")
	if fi, err := os.Stat(vocabFile); err != nil || fi.IsDir() {
		return "", fmt.Errorf("no vocab.txt in %s", vocabPath)
	}
	return vocabFile, nil
}

// specialIDs finds [CLS] and [SEP] by line order, defaulting to the BERT ids.
func specialIDs(vocabFile string) (clsID, sepID int, err error) {
	clsID, sepID = 101, 102

	f, err := os.Open(vocabFile)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	idx := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "":
			continue
		case "[CLS]":
			clsID = idx
		case "[SEP]":
			sepID = idx
		}
		idx++
	}
	return clsID, sepID, scanner.Err()
}
