// Package container implements the engine's hierarchical on-disk
// container (spec.md §6): "all intermediate typed arrays live in a
// hierarchical container (groups and datasets)... opened once at
// start, closed at end." Grounded on the teacher's
// index/serialization.go binary index (magic + header + records),
// generalized from one flat index to a named-blob tree addressed by
// "group/dataset" path keys. Each dataset carries an xxhash checksum
// written alongside it (the same cespare/xxhash already used for
// minimizer hashing), checked back on Open the way kmcp checksums its
// own index blocks.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Magic identifies a container file, the same role as
// index/serialization.go's Magic but renamed to this engine's domain.
var Magic = [8]byte{'g', 'a', 't', 'b', 'c', 'n', 't', 'r'}

// Version is the on-disk format version.
const Version uint8 = 1

// ErrInvalidFormat means the magic number or version didn't match.
var ErrInvalidFormat = errors.New("container: invalid format")

// ErrDatasetNotFound means GetDataset was asked for a name never
// written to this container.
var ErrDatasetNotFound = errors.New("container: dataset not found")

// ErrClosed means an operation was attempted after Close.
var ErrClosed = errors.New("container: already closed")

// ErrChecksumMismatch means a dataset's stored xxhash checksum didn't
// match its bytes on read, i.e. the container file was truncated or
// corrupted after Flush.
var ErrChecksumMismatch = errors.New("container: checksum mismatch")

// Container is a hierarchical group/dataset store. Despite the name,
// groups are not a distinct on-disk structure: a dataset's full path
// (e.g. "dsk/solid", "minimizers/minimFrequency") is its key, exactly
// as spec.md §6 names the four required datasets. The whole tree is
// held in memory between Open and Close and written out once, which
// suffices for the bounded set of named blobs this engine produces --
// unlike GATB's real HDF5 container (explicitly out of scope, spec.md
// §1), there is no need for partial/streamed dataset access here.
type Container struct {
	path     string
	datasets map[string][]byte
	closed   bool
	dirty    bool
}

// Create opens a new, empty container at path. The file is not
// written until Close (or Flush).
func Create(path string) *Container {
	return &Container{path: path, datasets: make(map[string][]byte)}
}

// Open reads an existing container file fully into memory.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "container: open %s", path)
	}
	defer f.Close()

	c := &Container{path: path, datasets: make(map[string][]byte)}
	if err := c.readFrom(f); err != nil {
		return nil, errors.Wrapf(err, "container: read %s", path)
	}
	return c, nil
}

// PutDataset stores data under name, overwriting any previous value.
// name conventionally looks like "dsk/solid" or "configuration/xml" --
// spec.md §6's dataset names.
func (c *Container) PutDataset(name string, data []byte) error {
	if c.closed {
		return ErrClosed
	}
	c.datasets[name] = data
	c.dirty = true
	return nil
}

// GetDataset returns the bytes stored under name.
func (c *Container) GetDataset(name string) ([]byte, error) {
	d, ok := c.datasets[name]
	if !ok {
		return nil, errors.Wrapf(ErrDatasetNotFound, "%s", name)
	}
	return d, nil
}

// HasDataset reports whether name was ever written.
func (c *Container) HasDataset(name string) bool {
	_, ok := c.datasets[name]
	return ok
}

// Names returns every dataset name, sorted, for diagnostic listing.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.datasets))
	for n := range c.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Flush writes the full container to disk without closing it.
func (c *Container) Flush() error {
	if c.closed {
		return ErrClosed
	}
	f, err := os.Create(c.path)
	if err != nil {
		return errors.Wrapf(err, "container: create %s", c.path)
	}
	defer f.Close()
	if err := c.writeTo(f); err != nil {
		return errors.Wrapf(err, "container: write %s", c.path)
	}
	c.dirty = false
	return nil
}

// Close flushes any pending writes (if this Container was opened via
// Create and has unsaved datasets) and marks it closed. The container
// is opened once and closed at the end of the run, per spec.md §6.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	var err error
	if c.dirty {
		err = c.Flush()
	}
	c.closed = true
	return err
}

func (c *Container) writeTo(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, Magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, Version); err != nil {
		return err
	}
	names := c.Names()
	if err := binary.Write(w, binary.BigEndian, uint32(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		data := c.datasets[name]
		if err := writeLenPrefixed(w, []byte(name)); err != nil {
			return err
		}
		if err := writeLenPrefixed(w, data); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, xxhash.Sum64(data)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) readFrom(r io.Reader) error {
	var magic [8]byte
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return err
	}
	if magic != Magic {
		return ErrInvalidFormat
	}
	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return err
	}
	if version != Version {
		return errors.Wrapf(ErrInvalidFormat, "version %d", version)
	}
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		name, err := readLenPrefixed(r)
		if err != nil {
			return err
		}
		data, err := readLenPrefixed(r)
		if err != nil {
			return err
		}
		var checksum uint64
		if err := binary.Read(r, binary.BigEndian, &checksum); err != nil {
			return err
		}
		if xxhash.Sum64(data) != checksum {
			return errors.Wrapf(ErrChecksumMismatch, "%s", name)
		}
		c.datasets[string(name)] = data
	}
	return nil
}

func writeLenPrefixed(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("container: truncated dataset: %w", err)
	}
	return data, nil
}
