package tokenizer

import (
	"bufio"
	"os"
	"strings"
)

// WordPiece is a word-level encoder: whitespace split, exact vocab lookup,
// [UNK] for anything missing. No subword splitting.
type WordPiece struct {
	vocab     map[string]int
	unkID     int
	maxSeqLen int
}

func LoadWordPieceFromVocab(path string, maxSeq int) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vocab := make(map[string]int, 60000)
	idx := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		vocab[tok] = idx
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewWordPiece(vocab, maxSeq), nil
}

// NewWordPiece builds an encoder over an in-memory vocabulary.
func NewWordPiece(vocab map[string]int, maxSeq int) *WordPiece {
	wp := &WordPiece{vocab: vocab, maxSeqLen: maxSeq, unkID: 100}
	if id, ok := vocab["[UNK]"]; ok {
		wp.unkID = id
	}
	return wp
}

func (w *WordPiece) Encode(text string) ([]int, error) {
	tokens := strings.Fields(strings.ToLower(text))
	seq := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if w.maxSeqLen > 0 && len(seq) >= w.maxSeqLen {
			break
		}
		id, ok := w.vocab[tok]
		if !ok {
			id = w.unkID
		}
		seq = append(seq, id)
	}
	return seq, nil
}
