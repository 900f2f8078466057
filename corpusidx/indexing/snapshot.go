package indexing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	snapshotMagic   = "CIDX"
	snapshotVersion = uint32(1)
)

var ErrBadSnapshot = errors.New("not a corpus index snapshot")

// Snapshot is the on-disk form of a built index. AudioPaths is nil for
// text-only indices.
type Snapshot struct {
	Meta       Meta
	AudioPaths []string
	Tokens     [][]int
}

// PersistSnapshot writes a versioned little-endian snapshot to path.
// Format:
// [magic 'CIDX'] [u32 version] [str buildID] [i64 buildUnix] [u32 bucketSize]
// [u8 ascending] [u64 n] [u8 hasPaths] [n x str path]? [n x u32 len] [sum(len) x i32 token]
// where str is [u32 byteLen][bytes].
func PersistSnapshot(path string, snap *Snapshot) (err error) {
	if snap.AudioPaths != nil && len(snap.AudioPaths) != len(snap.Tokens) {
		return fmt.Errorf("snapshot columns disagree: %d paths, %d sequences", len(snap.AudioPaths), len(snap.Tokens))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := &binWriter{w: bufio.NewWriter(f)}
	w.raw([]byte(snapshotMagic))
	w.u32(snapshotVersion)
	w.str(snap.Meta.BuildID)
	w.put(snap.Meta.BuildUnixSec)
	w.u32(uint32(snap.Meta.BucketSize))
	w.flag(snap.Meta.Ascending)
	w.put(uint64(len(snap.Tokens)))
	w.flag(snap.AudioPaths != nil)
	for _, p := range snap.AudioPaths {
		w.str(p)
	}
	for _, seq := range snap.Tokens {
		w.u32(uint32(len(seq)))
	}
	for _, seq := range snap.Tokens {
		for _, id := range seq {
			if id > math.MaxInt32 || id < math.MinInt32 {
				return fmt.Errorf("token id %d does not fit the snapshot format", id)
			}
			w.put(int32(id))
		}
	}
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// LoadSnapshot reads a snapshot persisted with PersistSnapshot. Every count
// in the file is checked against the bytes that remain before anything is
// allocated, so truncated or corrupt files fail with ErrBadSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r := &binReader{r: bufio.NewReader(f), left: fi.Size()}
	magic := r.raw(4)
	if r.err != nil || string(magic) != snapshotMagic {
		return nil, fmt.Errorf("%w: %s", ErrBadSnapshot, path)
	}
	if ver := r.u32(); r.err == nil && ver != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, ver)
	}

	snap := &Snapshot{}
	snap.Meta.BuildID = r.str()
	r.get(&snap.Meta.BuildUnixSec)
	snap.Meta.BucketSize = int(r.u32())
	snap.Meta.Ascending = r.flag()
	var n uint64
	r.get(&n)
	hasPaths := r.flag()
	if r.err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", r.err)
	}

	// each record holds at least a u32 length, plus a u32 string length with paths
	perRecord := uint64(4)
	if hasPaths {
		perRecord += 4
	}
	if n > uint64(r.left)/perRecord {
		return nil, fmt.Errorf("%w: %d records do not fit in %d bytes", ErrBadSnapshot, n, r.left)
	}
	snap.Meta.NumRecords = int(n)

	if hasPaths {
		snap.AudioPaths = make([]string, n)
		for i := range snap.AudioPaths {
			snap.AudioPaths[i] = r.str()
		}
	}
	lens := make([]uint32, n)
	var total uint64
	for i := range lens {
		lens[i] = r.u32()
		total += uint64(lens[i])
	}
	if r.err != nil {
		return nil, fmt.Errorf("read snapshot columns: %w", r.err)
	}
	if total > uint64(r.left)/4 {
		return nil, fmt.Errorf("%w: %d tokens do not fit in %d bytes", ErrBadSnapshot, total, r.left)
	}

	snap.Tokens = make([][]int, n)
	for i, l := range lens {
		seq := make([]int, l)
		for j := range seq {
			var id int32
			r.get(&id)
			seq[j] = int(id)
		}
		snap.Tokens[i] = seq
	}
	if r.err != nil {
		return nil, fmt.Errorf("read snapshot tokens: %w", r.err)
	}
	return snap, nil
}

// binWriter keeps the first write error so the encoder reads straight through.
type binWriter struct {
	w   *bufio.Writer
	err error
}

func (b *binWriter) put(v any) {
	if b.err == nil {
		b.err = binary.Write(b.w, binary.LittleEndian, v)
	}
}

func (b *binWriter) raw(p []byte) {
	if b.err == nil {
		_, b.err = b.w.Write(p)
	}
}

func (b *binWriter) u32(v uint32) { b.put(v) }

func (b *binWriter) flag(v bool) {
	if v {
		b.raw([]byte{1})
	} else {
		b.raw([]byte{0})
	}
}

func (b *binWriter) str(s string) {
	b.u32(uint32(len(s)))
	b.raw([]byte(s))
}

// binReader keeps the first read error and the unread byte count. Reads
// past the end of the file fail with ErrBadSnapshot before allocating.
type binReader struct {
	r    *bufio.Reader
	left int64
	err  error
}

func (b *binReader) take(n int64) bool {
	if b.err != nil {
		return false
	}
	if n > b.left {
		b.err = fmt.Errorf("%w: need %d bytes, %d left", ErrBadSnapshot, n, b.left)
		return false
	}
	b.left -= n
	return true
}

func (b *binReader) get(v any) {
	if b.take(int64(binary.Size(v))) {
		b.err = binary.Read(b.r, binary.LittleEndian, v)
	}
}

func (b *binReader) raw(n int) []byte {
	if !b.take(int64(n)) {
		return nil
	}
	buf := make([]byte, n)
	_, b.err = io.ReadFull(b.r, buf)
	return buf
}

func (b *binReader) u32() uint32 {
	var v uint32
	b.get(&v)
	return v
}

func (b *binReader) flag() bool {
	p := b.raw(1)
	return len(p) == 1 && p[0] == 1
}

func (b *binReader) str() string {
	n := b.u32()
	if b.err != nil {
		return ""
	}
	return string(b.raw(int(n)))
}
