// Package report reads crawler reports and writes seed lists in the
// supported output formats
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenReport opens a crawler report. An empty path or "-" reads stdin.
// zstd and gzip compressed reports are decompressed transparently, detected
// by extension or by their magic bytes.
func OpenReport(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return NewReportReader(os.Stdin, "")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}

	rc, err := newReader(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rc.closers = append(rc.closers, f.Close)

	return rc, nil
}

// NewReportReader wraps r with the decompressor matching ext or the
// stream's leading bytes. Closing the result does not close r.
func NewReportReader(r io.Reader, ext string) (io.ReadCloser, error) {
	rc, err := newReader(r, ext)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func newReader(r io.Reader, ext string) (*readCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	switch {
	case strings.EqualFold(ext, ".zst") || bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("unable to create zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
		}}, nil
	case strings.EqualFold(ext, ".gz") || bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("unable to create gzip reader: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close}}, nil
	default:
		return &readCloser{Reader: br}, nil
	}
}
