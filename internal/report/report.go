// Package report renders the end-of-run summary a sampling invocation
// prints for the operator.
package report

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Summary describes one completed sampling run.
type Summary struct {
	Mode         string
	Source       string
	Output       string
	TotalRows    int64 // data rows in the source; -1 when no counting pass ran
	SampleSize   int64
	RowsWritten  int64
	BytesWritten int64
	Seed         int64
	Seeded       bool // Seed was supplied rather than time-derived
	Elapsed      time.Duration
}

// Render writes the summary as a two-column table.
func (s Summary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"mode", s.Mode})
	table.Append([]string{"source", s.Source})
	table.Append([]string{"output", s.Output})
	if s.TotalRows >= 0 {
		table.Append([]string{"source rows", humanize.Comma(s.TotalRows)})
	}
	table.Append([]string{"sample size", humanize.Comma(s.SampleSize)})
	table.Append([]string{"rows written", humanize.Comma(s.RowsWritten)})
	table.Append([]string{"bytes written", humanize.Bytes(uint64(s.BytesWritten))})
	if s.Seeded {
		table.Append([]string{"seed", humanize.Comma(s.Seed)})
	}
	table.Append([]string{"elapsed", s.Elapsed.Round(time.Millisecond).String()})

	table.Render()
}
