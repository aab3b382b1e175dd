package gunzip

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

// writeGzipFile builds a one-member gzip file from payload, compressing
// it at the given flate.* level, and writes it to a temp file for Gunzip
// to read back. Using the standard library's writer here is purely test
// tooling: this module never imports a compressor.
func writeGzipFile(t *testing.T, payload []byte, level int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		t.Fatalf("NewWriterLevel: %v", err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

// Scenario 4: plain ASCII text round-trips through default (dynamic
// Huffman) compression.
func TestGunzipTextRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly: " +
		"the quick brown fox jumps over the lazy dog.")
	path := writeGzipFile(t, payload, gzip.BestCompression)

	var out bytes.Buffer
	if err := Gunzip(path, &out); err != nil {
		t.Fatalf("Gunzip: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("output = %q, want %q", out.Bytes(), payload)
	}
}

// Scenario 5: highly repetitive input forces long run-length
// back-references to exercise overlapping-copy expansion.
func TestGunzipRunLengthBackreferences(t *testing.T) {
	payload := bytes.Repeat([]byte("ab"), 10000)
	path := writeGzipFile(t, payload, gzip.BestCompression)

	var out bytes.Buffer
	if err := Gunzip(path, &out); err != nil {
		t.Fatalf("Gunzip: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("round trip mismatch, got %d bytes, want %d", out.Len(), len(payload))
	}
}

// Scenario 6: a gzip file truncated mid-stream must fail, not silently
// return partial output as success.
func TestGunzipTruncatedInputFails(t *testing.T) {
	payload := bytes.Repeat([]byte("truncate this please "), 500)
	full := writeGzipFile(t, payload, gzip.BestCompression)

	raw, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	truncated := raw[:len(raw)/2]
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.gz")
	if err := os.WriteFile(path, truncated, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	if err := Gunzip(path, &out); err == nil {
		t.Fatal("Gunzip on truncated input succeeded, want error")
	}
}

// Scenario 7: a gzip member whose DEFLATE payload is stored (BTYPE=00)
// blocks only must still round-trip.
func TestGunzipStoredBlockOnlyFile(t *testing.T) {
	payload := []byte("stored blocks carry raw bytes with no Huffman coding at all")
	dir := t.TempDir()
	path := filepath.Join(dir, "stored.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	var deflated bytes.Buffer
	fw, err := flate.NewWriter(&deflated, flate.NoCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := f.Write([]byte{0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 0, 0xff}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := f.Write(deflated.Bytes()); err != nil {
		t.Fatalf("write body: %v", err)
	}
	crc := crc32.ChecksumIEEE(payload)
	size := uint32(len(payload))
	trailer := []byte{
		byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24),
		byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24),
	}
	if _, err := f.Write(trailer); err != nil {
		t.Fatalf("write trailer: %v", err)
	}
	f.Close()

	var out bytes.Buffer
	if err := Gunzip(path, &out, VerifyTrailer()); err != nil {
		t.Fatalf("Gunzip: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("output = %q, want %q", out.Bytes(), payload)
	}
}

func TestGunzipNonexistentPathFails(t *testing.T) {
	var out bytes.Buffer
	err := Gunzip(filepath.Join(t.TempDir(), "missing.gz"), &out)
	if err == nil {
		t.Fatal("Gunzip on missing path succeeded, want error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Gunzip error = %v, want wrapped os.ErrNotExist", err)
	}
}
