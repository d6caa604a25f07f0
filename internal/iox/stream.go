// Package iox provides the buffered, optionally gzip-compressed file
// streams every on-disk stage (partition files, traveller files, glue
// files, the final unitig FASTA) opens and closes through, grounded on
// the teacher's outStream/inStream helpers (unikmer/cmd/util-io.go),
// generalized to a single pair of functions shared across packages
// instead of being private to one cmd package.
package iox

import (
	"bufio"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// WriteCloser bundles the buffered writer the caller writes through
// with the underlying closers that must run in order at the end.
type WriteCloser struct {
	*bufio.Writer
	gw io.WriteCloser
	f  *os.File
}

// Close flushes the buffer, then closes the gzip writer (if any) and
// the file, in that order -- the same order the teacher's deferred
// outStream cleanup runs in.
func (w *WriteCloser) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.gw != nil {
		if err := w.gw.Close(); err != nil {
			return err
		}
	}
	return w.f.Close()
}

// CreateStream opens path for writing, wrapping it in pgzip when
// compressed is true, exactly as outStream does for partition and
// traveller files (spec.md §6).
func CreateStream(path string, compressed bool) (*WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iox: create %s", path)
	}
	if compressed {
		gw := gzip.NewWriter(f)
		return &WriteCloser{Writer: bufio.NewWriterSize(gw, os.Getpagesize()), gw: gw, f: f}, nil
	}
	return &WriteCloser{Writer: bufio.NewWriterSize(f, os.Getpagesize()), f: f}, nil
}

// ReadCloser bundles the buffered reader with the closers it must run
// at the end.
type ReadCloser struct {
	*bufio.Reader
	gr io.Closer
	f  *os.File
}

// Close closes the gzip reader (if any) then the file.
func (r *ReadCloser) Close() error {
	if r.gr != nil {
		if err := r.gr.Close(); err != nil {
			return err
		}
	}
	return r.f.Close()
}

// OpenStream opens path for reading, auto-detecting gzip by magic
// bytes the same way the teacher's inStream/isGzip pair does.
func OpenStream(path string) (*ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iox: open %s", path)
	}
	br := bufio.NewReaderSize(f, os.Getpagesize())

	gzipped, err := isGzip(br)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "iox: check gzip %s", path)
	}
	if gzipped {
		gr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "iox: gzip reader %s", path)
		}
		return &ReadCloser{Reader: bufio.NewReaderSize(gr, os.Getpagesize()), gr: gr, f: f}, nil
	}
	return &ReadCloser{Reader: br, f: f}, nil
}

func isGzip(b *bufio.Reader) (bool, error) {
	magic := []byte{0x1f, 0x8b}
	m, err := b.Peek(len(magic))
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return m[0] == magic[0] && m[1] == magic[1], nil
}
