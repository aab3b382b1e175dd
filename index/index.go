// Package index builds a zran-style random-access index over a gzip
// file: access points recorded every span bytes of uncompressed output,
// each capturing enough decoder state (bit position, sliding window) to
// resume decoding from there without replaying the whole stream.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/coreos/gunzip/bitio"
	"github.com/coreos/gunzip/deflate"
	"github.com/coreos/gunzip/gzip"
	"github.com/coreos/gunzip/window"
)

// span is the minimum distance, in uncompressed bytes, between access
// points: the balance the original zran.c strikes between index memory
// use and the average amount of work a random read must redo.
const span = 1 << 20

// ErrOutOfRange is returned by Extract when the requested offset falls
// outside the uncompressed stream this index was built from.
var ErrOutOfRange = errors.New("index: offset out of range")

// point is one access point: the compressed-file offset and decoder
// state needed to resume producing output starting at outOffset.
type point struct {
	fileOffset int64
	outOffset  int64
	bit        bitio.Snapshot
	win        window.Snapshot
}

// Index is a random-access index into a single gzip member. It does not
// support multistream files, matching this module's scope generally.
type Index struct {
	path   string
	points []point
}

// BuildIndex decompresses the gzip file at path once, recording an
// access point about every span bytes of uncompressed output (plus one
// at the very start), and returns an Index that can later Extract slices
// of the decompressed data without decoding from the beginning each
// time.
func BuildIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := gzip.Open(f)
	if err != nil {
		return nil, err
	}

	br := bitio.NewReader(m.Reader())
	win := window.New()
	out := &countingWriter{}
	dec := deflate.NewDecoder(br, win, out)

	idx := &Index{path: path}
	idx.points = append(idx.points, point{
		fileOffset: m.HeaderLen(),
		outOffset:  0,
		bit:        br.Save(),
		win:        win.Save(),
	})

	var sinceCheckpoint int64
	for {
		before := out.n
		final, err := dec.Step()
		if err != nil {
			return nil, err
		}
		sinceCheckpoint += out.n - before
		if final {
			break
		}
		if sinceCheckpoint >= span {
			idx.points = append(idx.points, point{
				fileOffset: m.HeaderLen() + br.ByteOffset(),
				outOffset:  out.n,
				bit:        br.Save(),
				win:        win.Save(),
			})
			sinceCheckpoint = 0
		}
	}
	return idx, nil
}

// Extract returns the length uncompressed bytes starting at offset,
// resuming decode from the nearest access point at or before offset
// rather than decoding the file from the start.
func (idx *Index) Extract(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, ErrOutOfRange
	}
	if length == 0 {
		return nil, nil
	}

	pt := idx.pointBefore(offset)

	f, err := os.Open(idx.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(pt.fileOffset, io.SeekStart); err != nil {
		return nil, err
	}

	br := bitio.NewReader(bufio.NewReader(f))
	br.Restore(pt.bit)
	win := window.New()
	win.Restore(pt.win)

	var buf bytes.Buffer
	sink := &skippingWriter{skip: offset - pt.outOffset, buf: &buf, want: length}
	dec := deflate.NewDecoder(br, win, sink)

	for int64(buf.Len()) < length {
		final, err := dec.Step()
		if err != nil {
			return nil, err
		}
		if final {
			break
		}
	}

	result := buf.Bytes()
	if int64(len(result)) > length {
		result = result[:length]
	}
	return result, nil
}

// pointBefore returns the last recorded access point at or before
// offset, or the first point if offset precedes everything recorded.
func (idx *Index) pointBefore(offset int64) point {
	best := idx.points[0]
	for _, p := range idx.points {
		if p.outOffset > offset {
			break
		}
		best = p
	}
	return best
}

// countingWriter discards bytes written to it while counting them, used
// while building the index (the decompressed bytes themselves are not
// retained, only their count).
type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// skippingWriter discards the first skip bytes written to it (the gap
// between an access point's output offset and the caller's requested
// offset), then buffers whole writes until it holds at least want bytes
// (Extract trims any excess).
type skippingWriter struct {
	skip int64
	want int64
	buf  *bytes.Buffer
}

func (w *skippingWriter) Write(p []byte) (int, error) {
	n := len(p)
	if w.skip > 0 {
		if int64(len(p)) <= w.skip {
			w.skip -= int64(len(p))
			return n, nil
		}
		p = p[w.skip:]
		w.skip = 0
	}
	if int64(w.buf.Len()) < w.want {
		w.buf.Write(p)
	}
	return n, nil
}
