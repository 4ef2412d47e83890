// Package rowsource provides streaming, line-oriented access to large
// delimited datasets.
//
// A Source yields raw rows in file order without ever materializing the
// whole dataset; callers see one row at a time through the Rows iterator.
// Two implementations are provided: FileSource for plain or gzip-compressed
// delimited text files, and ParquetSource, which renders a parquet file as
// delimited text so that parquet inputs flow through the same row-level
// machinery.
//
// The package also hosts CountRows, the single-pass row counter used to
// size a population before sampling.
package rowsource

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Long lines are rare in delimited data but a hard scanner cap would turn
// them into read errors, so allow tokens well past bufio's default.
const maxRowBytes = 16 << 20

// Rows iterates over the rows of a source, one at a time. The usual
// pattern mirrors bufio.Scanner:
//
//	rows, err := src.Open()
//	if err != nil { ... }
//	defer rows.Close()
//	for rows.Next() {
//	    process(rows.Text())
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows interface {
	// Next advances to the next row, returning false at end of input or
	// on error.
	Next() bool

	// Text returns the current row without its line terminator.
	Text() string

	// Err returns the first error encountered while reading, if any.
	Err() error

	// Close releases the underlying resources.
	Close() error
}

// Source is a finite ordered sequence of raw text rows that can be opened
// for streaming any number of times. Each Open starts a fresh pass.
type Source interface {
	Open() (Rows, error)

	// Header reports whether the first row is a header line rather than
	// data.
	Header() bool
}

// FileSource reads rows from a delimited text file. Files ending in .gz
// are decompressed transparently.
type FileSource struct {
	Path string

	// NoHeader treats the first line as data instead of a header.
	NoHeader bool
}

// Open opens the file for a streaming pass.
func (s FileSource) Open() (Rows, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %s", s.Path)
	}

	var r io.Reader = f
	var gz *gzip.Reader
	if strings.EqualFold(filepath.Ext(s.Path), ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "decompress source %s", s.Path)
		}
		r = gz
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRowBytes)
	return &fileRows{path: s.Path, file: f, gz: gz, sc: sc}, nil
}

// Header reports whether the first line is a header.
func (s FileSource) Header() bool {
	return !s.NoHeader
}

type fileRows struct {
	path string
	file *os.File
	gz   *gzip.Reader
	sc   *bufio.Scanner
}

func (r *fileRows) Next() bool {
	return r.sc.Scan()
}

func (r *fileRows) Text() string {
	return r.sc.Text()
}

func (r *fileRows) Err() error {
	if err := r.sc.Err(); err != nil {
		return errors.Wrapf(err, "read source %s", r.path)
	}
	return nil
}

func (r *fileRows) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.file.Close()
			return errors.Wrapf(err, "close source %s", r.path)
		}
	}
	return r.file.Close()
}
