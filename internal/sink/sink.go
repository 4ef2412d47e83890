// Package sink abstracts the destination a sample is written to.
//
// A Sink hands out a Writer for one complete output; the caller streams
// rows into it and then either Commits (output is complete) or Discards
// (output is abandoned after a failure). File is the only implementation:
// it writes plain or gzip-compressed files and optionally makes the write
// atomic through a same-directory temporary file renamed on Commit.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Writer receives one complete output. Exactly one of Commit or Discard
// must be called; writing after either is undefined.
type Writer interface {
	io.Writer

	// Commit flushes buffered data and finalizes the output.
	Commit() error

	// Discard abandons the output. Atomic sinks remove the temporary
	// file; plain sinks leave whatever was already written in place.
	Discard() error
}

// Sink creates Writers for a destination.
type Sink interface {
	Create() (Writer, error)
}

// File writes to a file path, overwriting any existing file. Paths ending
// in .gz are gzip-compressed.
//
// Without Atomic, a failure mid-write leaves a partial file behind; that
// is acceptable for a one-off tool but callers wanting all-or-nothing
// output should set Atomic, which stages the write in a temporary file in
// the destination directory and renames it into place on Commit.
type File struct {
	Path   string
	Atomic bool
}

// Create opens the destination for writing.
func (s File) Create() (Writer, error) {
	path := s.Path
	if s.Atomic {
		path = filepath.Join(
			filepath.Dir(s.Path),
			fmt.Sprintf(".%s.%s.tmp", filepath.Base(s.Path), uuid.NewString()),
		)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open destination %s", s.Path)
	}

	w := &fileWriter{dest: s.Path, tmp: path, atomic: s.Atomic, file: f}
	if strings.EqualFold(filepath.Ext(s.Path), ".gz") {
		w.gz = gzip.NewWriter(f)
		w.buf = bufio.NewWriter(w.gz)
	} else {
		w.buf = bufio.NewWriter(f)
	}
	return w, nil
}

type fileWriter struct {
	dest   string
	tmp    string
	atomic bool
	file   *os.File
	gz     *gzip.Writer
	buf    *bufio.Writer
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if err != nil {
		return n, errors.Wrapf(err, "write destination %s", w.dest)
	}
	return n, nil
}

func (w *fileWriter) Commit() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return errors.Wrapf(err, "flush destination %s", w.dest)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			w.file.Close()
			return errors.Wrapf(err, "flush destination %s", w.dest)
		}
	}
	if err := w.file.Close(); err != nil {
		return errors.Wrapf(err, "close destination %s", w.dest)
	}
	if w.atomic {
		if err := os.Rename(w.tmp, w.dest); err != nil {
			os.Remove(w.tmp)
			return errors.Wrapf(err, "finalize destination %s", w.dest)
		}
	}
	return nil
}

func (w *fileWriter) Discard() error {
	err := w.file.Close()
	if w.atomic {
		if rmErr := os.Remove(w.tmp); err == nil {
			err = rmErr
		}
	}
	return err
}
