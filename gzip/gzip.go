// Package gzip decodes the gzip (RFC 1952) container: its fixed header,
// the optional FEXTRA/FNAME/FCOMMENT/FHCRC fields, the embedded DEFLATE
// stream, and (opt-in) the trailing CRC32/ISIZE check.
package gzip

import (
	"bufio"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"time"

	"github.com/coreos/gunzip/bitio"
	"github.com/coreos/gunzip/deflate"
	"github.com/coreos/gunzip/window"
)

const (
	id1        = 0x1f
	id2        = 0x8b
	deflateAlg = 8

	flagText    = 1 << 0
	flagHdrCRC  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// ErrNotGzip is returned when the input does not begin with the gzip
// magic bytes, or is shorter than the 10-byte fixed header.
var ErrNotGzip = errors.New("gzip: not a gzip stream")

// ErrUnsupportedMethod is returned when the header names a compression
// method other than DEFLATE (method 8), the only one RFC 1952 defines.
var ErrUnsupportedMethod = errors.New("gzip: unsupported compression method")

// ErrChecksum is returned by Decompress, when trailer verification was
// requested, if the trailing CRC32 or ISIZE does not match the
// decompressed data. Open also returns it, wrapped, when a header's FHCRC
// field does not match.
var ErrChecksum = errors.New("gzip: trailer checksum mismatch")

// Header holds the metadata fields a gzip member's header carries.
type Header struct {
	ModTime time.Time
	OS      byte
	Name    string
	Comment string
	Extra   []byte
}

// Member decodes a single gzip member (this package does not implement
// multistream concatenation; see the root package for that Non-goal).
type Member struct {
	Header

	r         *bufio.Reader
	digest    hash.Hash32
	size      uint32
	flg       byte
	headerLen int64
}

// Open reads and validates a gzip member's header from r, leaving the
// stream positioned at the start of the embedded DEFLATE data.
func Open(r io.Reader) (*Member, error) {
	m := &Member{r: bufioReader(r), digest: crc32.NewIEEE()}
	if err := m.readHeader(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reader returns the stream positioned at the start of the embedded
// DEFLATE data, for callers (the index package) that need to drive
// decoding themselves instead of calling Decompress.
func (m *Member) Reader() io.Reader { return m.r }

// HeaderLen reports the exact number of bytes this member's header
// occupied, independent of any read-ahead buffering on r. Added to a
// bitio.Reader's ByteOffset, it gives the absolute file offset of a
// mid-stream decode position, which the index package needs to seek
// back to on random-access reads.
func (m *Member) HeaderLen() int64 { return m.headerLen }

func bufioReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func (m *Member) readHeader() error {
	var hdr [10]byte
	if _, err := io.ReadFull(m.r, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("gzip: %w", ErrNotGzip)
		}
		return err
	}
	if hdr[0] != id1 || hdr[1] != id2 {
		return ErrNotGzip
	}
	if hdr[2] != deflateAlg {
		return ErrUnsupportedMethod
	}
	m.flg = hdr[3]
	m.ModTime = time.Unix(int64(le32(hdr[4:8])), 0)
	m.OS = hdr[9]
	m.headerLen = int64(len(hdr))

	m.digest.Reset()
	m.digest.Write(hdr[:])

	if m.flg&flagExtra != 0 {
		n, err := m.read2()
		if err != nil {
			return err
		}
		m.headerLen += 2
		extra := make([]byte, n)
		if _, err := io.ReadFull(m.r, extra); err != nil {
			return err
		}
		m.headerLen += int64(n)
		m.Extra = extra
	}
	if m.flg&flagName != 0 {
		s, n, err := m.readCString()
		if err != nil {
			return err
		}
		m.headerLen += n
		m.Name = s
	}
	if m.flg&flagComment != 0 {
		s, n, err := m.readCString()
		if err != nil {
			return err
		}
		m.headerLen += n
		m.Comment = s
	}
	if m.flg&flagHdrCRC != 0 {
		n, err := m.read2()
		if err != nil {
			return err
		}
		m.headerLen += 2
		if n != m.digest.Sum32()&0xFFFF {
			return fmt.Errorf("gzip: header CRC mismatch: %w", ErrChecksum)
		}
	}
	m.digest.Reset()
	return nil
}

func (m *Member) read2() (uint32, error) {
	var b [2]byte
	if _, err := io.ReadFull(m.r, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8, nil
}

// readCString reads a NUL-terminated Latin-1 string, the encoding RFC
// 1952 specifies for FNAME and FCOMMENT, returning both the decoded
// string and the exact number of raw bytes consumed (including the
// terminator), since a non-ASCII Latin-1 byte can expand to more than
// one byte once converted to UTF-8.
func (m *Member) readCString() (string, int64, error) {
	var runes []rune
	var n int64
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			return "", 0, err
		}
		n++
		if b == 0 {
			return string(runes), n, nil
		}
		runes = append(runes, rune(b))
	}
}

func le32(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

// Decompress drives the embedded DEFLATE stream to completion, writing
// decompressed bytes to sink. If verifyTrailer is true, it then reads the
// 8-byte CRC32/ISIZE trailer and confirms it against the data produced,
// returning ErrChecksum on mismatch.
func (m *Member) Decompress(sink io.Writer, verifyTrailer bool) error {
	win := window.New()
	var w io.Writer = sink
	if verifyTrailer {
		w = io.MultiWriter(sink, &countingHasher{h: m.digest, size: &m.size})
	}

	br := bitio.NewReader(m.r)
	dec := deflate.NewDecoder(br, win, w)
	if err := dec.Run(); err != nil {
		return err
	}

	if !verifyTrailer {
		return nil
	}
	var trailer [8]byte
	if _, err := io.ReadFull(m.r, trailer[:]); err != nil {
		return fmt.Errorf("gzip: reading trailer: %w", err)
	}
	wantCRC, wantSize := le32(trailer[0:4]), le32(trailer[4:8])
	if wantCRC != m.digest.Sum32() || wantSize != m.size {
		return ErrChecksum
	}
	return nil
}

// countingHasher feeds every write into a running CRC32 and byte count,
// used only when trailer verification is requested so the common path
// pays no hashing cost.
type countingHasher struct {
	h    hash.Hash32
	size *uint32
}

func (c *countingHasher) Write(p []byte) (int, error) {
	c.h.Write(p)
	*c.size += uint32(len(p))
	return len(p), nil
}
