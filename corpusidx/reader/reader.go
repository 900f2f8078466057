package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrMalformedLine marks a transcript line with fewer than three tab fields
	ErrMalformedLine = errors.New("malformed transcript line")
	ErrPathEmpty     = errors.New("path cannot be empty")
)

// Transcript is the parsed first line of one transcript file.
type Transcript struct {
	Path      string // transcript file the line came from
	AudioPath string // field[1]
	Text      string // field[2]
}

// ParseError names the file (and line, when known) that failed to load.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadTranscript reads only the first line of path and extracts the audio
// identifier and transcript columns.
func ReadTranscript(path string) (Transcript, error) {
	if strings.TrimSpace(path) == "" {
		return Transcript{}, ErrPathEmpty
	}

	f, err := os.Open(path)
	if err != nil {
		return Transcript{}, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Transcript{}, &ParseError{Path: path, Line: 1, Err: err}
	}

	audio, text, err := ParseLine(line)
	if err != nil {
		return Transcript{}, &ParseError{Path: path, Line: 1, Err: err}
	}
	return Transcript{Path: path, AudioPath: audio, Text: text}, nil
}

// ParseLine splits a tab-delimited line and returns field[1] and field[2].
// Columns past the third are ignored.
func ParseLine(line string) (audioPath, text string, err error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return "", "", fmt.Errorf("%w: want at least 3 tab-separated fields, got %d", ErrMalformedLine, len(fields))
	}
	return fields[1], fields[2], nil
}
