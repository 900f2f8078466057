package reader

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

// ReadSentences reads plain-text corpora with one sentence per line, as
// used for language-model text. Blank lines are skipped. Files are read in
// parallel; sentences come back in file order, then line order.
func ReadSentences(ctx context.Context, paths []string, opts Options) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	perFile := make([][]string, len(paths))
	p := pool.New().
		WithMaxGoroutines(EffectiveThreads(opts.Threads, len(paths))).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			lines, err := readLines(ctx, path)
			if err != nil {
				return err
			}
			perFile[i] = lines
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, lines := range perFile {
		total += len(lines)
	}
	out := make([]string, 0, total)
	for _, lines := range perFile {
		out = append(out, lines...)
	}
	opts.Logger.Debug().Int("files", len(paths)).Int("sentences", total).Msg("text corpus read")
	return out, nil
}

func readLines(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: n + 1, Err: err}
	}
	return lines, nil
}
