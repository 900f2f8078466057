package indexing

import (
	"path/filepath"
	"strings"

	"github.com/armon/go-radix"
)

// PathIndex maps audio identifiers to their positions using a compressed
// trie (patricia tree), so exact lookups cost O(k) in the key length and
// prefix walks (a speaker or clip directory) touch only matching keys.
// It is built once and read-only afterwards.
type PathIndex struct {
	tree *radix.Tree
}

// BuildPathIndex indexes paths, where paths[i] belongs to position i. A
// path that appears more than once keeps every position, in order.
func BuildPathIndex(paths []string) *PathIndex {
	tree := radix.New()
	for pos, p := range paths {
		key := normalizePath(p)
		if existing, ok := tree.Get(key); ok {
			tree.Insert(key, append(existing.([]Position), Position(pos)))
			continue
		}
		tree.Insert(key, []Position{Position(pos)})
	}
	return &PathIndex{tree: tree}
}

// Lookup returns the first position holding path.
func (idx *PathIndex) Lookup(path string) (Position, bool) {
	v, ok := idx.tree.Get(normalizePath(path))
	if !ok {
		return 0, false
	}
	return v.([]Position)[0], true
}

// LookupAll returns every position holding path, in index order.
func (idx *PathIndex) LookupAll(path string) []Position {
	v, ok := idx.tree.Get(normalizePath(path))
	if !ok {
		return nil
	}
	return append([]Position(nil), v.([]Position)...)
}

// PrefixLookup returns the positions of all paths starting with prefix,
// walking keys in lexical order.
func (idx *PathIndex) PrefixLookup(prefix string) []Position {
	var results []Position
	idx.tree.WalkPrefix(normalizePrefix(prefix), func(_ string, v interface{}) bool {
		results = append(results, v.([]Position)...)
		return false
	})
	return results
}

// Size returns the number of distinct paths.
func (idx *PathIndex) Size() int { return idx.tree.Len() }

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return p
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// normalizePrefix keeps a trailing slash so "clips/" does not match "clipsX".
func normalizePrefix(p string) string {
	if p == "" {
		return p
	}
	trailing := strings.HasSuffix(p, "/") || strings.HasSuffix(p, "\\")
	p = normalizePath(p)
	if trailing && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
