package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Character maps each rune of a transcript to a vocab id. Spaces are
// encoded like any other symbol so word boundaries survive.
type Character struct {
	vocab map[rune]int
	unkID int
}

const charUnk = "<unk>"

// LoadCharacterFromVocab reads one symbol per line. A line holding "<unk>"
// sets the unknown id; without one, unknown runes are an error.
func LoadCharacterFromVocab(path string) (*Character, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := &Character{vocab: make(map[rune]int), unkID: -1}
	idx := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if line == charUnk {
			c.unkID = idx
			idx++
			continue
		}
		r := []rune(line)
		if len(r) != 1 {
			return nil, fmt.Errorf("%w: char vocab line %d has %d symbols", ErrUnsupported, idx+1, len(r))
		}
		c.vocab[r[0]] = idx
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Character) Encode(text string) ([]int, error) {
	seq := make([]int, 0, len(text))
	for _, r := range strings.ToLower(text) {
		id, ok := c.vocab[r]
		if !ok {
			if c.unkID < 0 {
				return nil, fmt.Errorf("symbol %q not in vocab", r)
			}
			id = c.unkID
		}
		seq = append(seq, id)
	}
	return seq, nil
}
