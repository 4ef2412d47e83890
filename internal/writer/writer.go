// Package writer streams rows from a source into a sink, keeping only the
// rows a sample calls for.
//
// Both writers emit the header row first and unconditionally (when the
// source has one) and preserve the original relative order of the rows
// they keep; sampling selects rows, it never reorders them. On any
// failure the sink writer is discarded, so atomic sinks leave no partial
// output behind.
package writer

import (
	"io"

	"github.com/pkg/errors"

	"github.com/nwcadence/csvsample/internal/rowsource"
	"github.com/nwcadence/csvsample/internal/sampler"
	"github.com/nwcadence/csvsample/internal/sink"
)

// Stats summarizes one writing pass.
type Stats struct {
	// RowsScanned is the number of data rows read from the source.
	RowsScanned int64

	// RowsWritten is the number of data rows emitted, header excluded.
	RowsWritten int64

	// BytesWritten is the total bytes handed to the sink, including line
	// terminators (pre-compression for gzip sinks).
	BytesWritten int64
}

// WriteFiltered streams the source once and emits exactly the rows whose
// 1-based data index is in keep. Keep-set indices beyond the rows actually
// observed simply never match; they are not an error.
func WriteFiltered(src rowsource.Source, keep *sampler.KeepSet, dst sink.Sink) (Stats, error) {
	return run(src, dst, func(i int64) (bool, bool) {
		return keep.Contains(i), false
	})
}

// WriteHead streams the source and emits the first k data rows, stopping
// the read as soon as they are written. A negative k is rejected with
// sampler.ErrInvalidSampleSize; k greater than the row count degrades to
// copying the whole source.
func WriteHead(src rowsource.Source, k int64, dst sink.Sink) (Stats, error) {
	if k < 0 {
		return Stats{}, errors.Wrapf(sampler.ErrInvalidSampleSize, "sample size %d", k)
	}
	return run(src, dst, func(i int64) (bool, bool) {
		return i <= k, i >= k
	})
}

// run drives one pass. decide is called with each 1-based data row index
// and returns whether to emit the row and whether the pass may stop after
// it.
func run(src rowsource.Source, dst sink.Sink, decide func(i int64) (emit, done bool)) (Stats, error) {
	rows, err := src.Open()
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	w, err := dst.Create()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	header := src.Header()
	for rows.Next() {
		if header {
			header = false
			if err := writeRow(w, rows.Text(), &stats); err != nil {
				w.Discard()
				return stats, err
			}
			continue
		}

		stats.RowsScanned++
		emit, done := decide(stats.RowsScanned)
		if emit {
			if err := writeRow(w, rows.Text(), &stats); err != nil {
				w.Discard()
				return stats, err
			}
			stats.RowsWritten++
		}
		if done {
			break
		}
	}
	if err := rows.Err(); err != nil {
		w.Discard()
		return stats, err
	}

	if err := w.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

func writeRow(w io.Writer, row string, stats *Stats) error {
	n, err := io.WriteString(w, row)
	stats.BytesWritten += int64(n)
	if err != nil {
		return err
	}
	n, err = io.WriteString(w, "\n")
	stats.BytesWritten += int64(n)
	return err
}
