package tokenizer

import (
	"errors"
	"fmt"
	"strings"
)

// Encoder turns a transcript into integer token ids. It is the only
// capability the indices need from a tokenizer.
type Encoder interface {
	Encode(text string) ([]int, error)
}

// EncoderFunc adapts a plain function to Encoder.
type EncoderFunc func(text string) ([]int, error)

func (f EncoderFunc) Encode(text string) ([]int, error) { return f(text) }

// Config holds basic tokenizer settings
type Config struct {
	Mode          string
	Vocab         string
	MaxSeqLen     int
	SpecialTokens bool
}

// Supported modes for Load
const (
	ModeWordPiece = "wordpiece"
	ModeWord      = "word"
	ModeChar      = "char"
)

// ErrUnsupported indicates the tokenizer could not be initialized
var ErrUnsupported = errors.New("unsupported tokenizer configuration")

// Load builds the encoder selected by cfg.Mode.
func Load(cfg Config) (Encoder, error) {
	if strings.TrimSpace(cfg.Vocab) == "" {
		return nil, fmt.Errorf("%w: vocab path is required", ErrUnsupported)
	}
	switch strings.ToLower(cfg.Mode) {
	case ModeWordPiece, "":
		return NewSugarWordPiece(cfg.Vocab, cfg.MaxSeqLen, cfg.SpecialTokens)
	case ModeWord:
		return LoadWordPieceFromVocab(cfg.Vocab, cfg.MaxSeqLen)
	case ModeChar:
		return LoadCharacterFromVocab(cfg.Vocab)
	default:
		return nil, fmt.Errorf("%w: mode %q", ErrUnsupported, cfg.Mode)
	}
}
