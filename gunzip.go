// Package gunzip decompresses gzip-compressed files. It implements
// decoding only: there is no compressor, no re-archiving, and (outside
// an explicit opt-in) no trailer verification.
package gunzip

import (
	"fmt"
	"io"
	"os"

	"github.com/coreos/gunzip/gzip"
)

// config collects the options Gunzip accepts.
type config struct {
	verifyTrailer bool
}

// Option configures a Gunzip call.
type Option func(*config)

// VerifyTrailer requests that the gzip member's trailing CRC32 and ISIZE
// fields be checked against the decompressed output, returning
// gzip.ErrChecksum on mismatch. Off by default: computing the running
// CRC32 costs a pass over every output byte that most callers don't need.
func VerifyTrailer() Option {
	return func(c *config) { c.verifyTrailer = true }
}

// Gunzip decompresses the gzip member stored at path, writing the
// decompressed bytes to sink. It does not support multistream gzip
// files: only the first member is decoded.
func Gunzip(path string, sink io.Writer, opts ...Option) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("gunzip: %w", err)
	}
	defer f.Close()

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := gzip.Open(f)
	if err != nil {
		return fmt.Errorf("gunzip: %s: %w", path, err)
	}
	if err := m.Decompress(sink, cfg.verifyTrailer); err != nil {
		return fmt.Errorf("gunzip: %s: %w", path, err)
	}
	return nil
}
