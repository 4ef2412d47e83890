// Command csvsample extracts a bounded-size subset of rows from a very
// large delimited text file (or a parquet file rendered as delimited text)
// without loading the file into memory.
//
// Two extraction modes are offered: "head" copies the first N data rows,
// and "random" draws a statistically uniform random sample of N rows from
// the full row population, preserving original row order. A "count"
// subcommand exposes the underlying row counter on its own.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nwcadence/csvsample/internal/report"
	"github.com/nwcadence/csvsample/internal/rowsource"
	"github.com/nwcadence/csvsample/internal/sampler"
	"github.com/nwcadence/csvsample/internal/sink"
	"github.com/nwcadence/csvsample/internal/writer"
)

var log = logrus.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options carries every knob a subcommand can set. All configuration is
// explicit; there is no ambient state.
type options struct {
	rows       int64
	output     string
	delimiter  string
	noHeader   bool
	seed       int64
	singlePass bool
	atomic     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "csvsample",
		Short:         "Extract bounded samples from large delimited files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if opts.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.delimiter, "delimiter", ",",
		"field delimiter of the source (single character)")
	root.PersistentFlags().BoolVar(&opts.noHeader, "no-header",
		false, "treat the first line as data instead of a header")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v",
		false, "log progress details to stderr")

	root.AddCommand(newCountCmd(opts), newHeadCmd(opts), newRandomCmd(opts))
	return root
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count <file>",
		Short: "Count data rows in a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(args[0], opts)
			if err != nil {
				return err
			}
			n, err := rowsource.CountRows(src)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newHeadCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "head <file>",
		Short: "Extract the first N data rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			src, err := newSource(args[0], opts)
			if err != nil {
				return err
			}
			out := opts.output
			if out == "" {
				out = defaultOutput(args[0], "head")
			}

			stats, err := writer.WriteHead(src, opts.rows, sink.File{Path: out, Atomic: opts.atomic})
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"rows": stats.RowsWritten, "output": out}).
				Debug("head extraction complete")

			report.Summary{
				Mode:         "head",
				Source:       args[0],
				Output:       out,
				TotalRows:    -1,
				SampleSize:   opts.rows,
				RowsWritten:  stats.RowsWritten,
				BytesWritten: stats.BytesWritten,
				Elapsed:      time.Since(start),
			}.Render(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().Int64VarP(&opts.rows, "rows", "n", 1000, "number of data rows to extract")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "",
		"destination file (default <source>.head.csv; .gz compresses)")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false,
		"stage output in a temp file and rename on success")
	return cmd
}

func newRandomCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random <file>",
		Short: "Extract N data rows uniformly at random",
		Long: `Extract N data rows chosen uniformly at random without replacement,
preserving their original order. Requesting more rows than the source
holds copies the entire source. The header row is always kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			src, err := newSource(args[0], opts)
			if err != nil {
				return err
			}
			out := opts.output
			if out == "" {
				out = defaultOutput(args[0], "sample")
			}

			seeded := cmd.Flags().Changed("seed")
			seed := opts.seed
			if !seeded {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			var total int64
			var keep *sampler.KeepSet
			if opts.singlePass {
				total, keep, err = reservoirPass(src, opts.rows, rng)
				if err != nil {
					return err
				}
			} else {
				total, err = rowsource.CountRows(src)
				if err != nil {
					return err
				}
				log.WithField("rows", total).Debug("counted source rows")
				keep, err = sampler.SelectKeepSet(total, opts.rows, rng)
				if err != nil {
					return err
				}
			}
			log.WithFields(logrus.Fields{"selected": keep.Len(), "population": total}).
				Debug("selected keep set")

			stats, err := writer.WriteFiltered(src, keep, sink.File{Path: out, Atomic: opts.atomic})
			if err != nil {
				return err
			}

			report.Summary{
				Mode:         "random",
				Source:       args[0],
				Output:       out,
				TotalRows:    total,
				SampleSize:   opts.rows,
				RowsWritten:  stats.RowsWritten,
				BytesWritten: stats.BytesWritten,
				Seed:         seed,
				Seeded:       seeded,
				Elapsed:      time.Since(start),
			}.Render(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().Int64VarP(&opts.rows, "rows", "n", 1000, "number of data rows to sample")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "",
		"destination file (default <source>.sample.csv; .gz compresses)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for reproducible samples")
	cmd.Flags().BoolVar(&opts.singlePass, "single-pass", false,
		"reservoir-sample indices while counting instead of running a separate counting pass")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false,
		"stage output in a temp file and rename on success")
	return cmd
}

// reservoirPass folds counting and selection into one pass: it streams the
// source once, reservoir-sampling data-row indices as it counts them.
func reservoirPass(src rowsource.Source, k int64, rng *rand.Rand) (int64, *sampler.KeepSet, error) {
	res, err := sampler.NewReservoir(k, rng)
	if err != nil {
		return 0, nil, err
	}

	rows, err := src.Open()
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	header := src.Header()
	for rows.Next() {
		if header {
			header = false
			continue
		}
		res.Observe()
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return res.Seen(), res.KeepSet(), nil
}

// newSource picks a Source implementation by file extension.
func newSource(path string, opts *options) (rowsource.Source, error) {
	delim, err := parseDelimiter(opts.delimiter)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		if opts.noHeader {
			return nil, errors.New("--no-header does not apply to parquet sources")
		}
		return rowsource.ParquetSource{Path: path, Delimiter: delim}, nil
	}
	return rowsource.FileSource{Path: path, NoHeader: opts.noHeader}, nil
}

func parseDelimiter(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, errors.Errorf("delimiter must be a single character, got %q", s)
	}
	return runes[0], nil
}

// defaultOutput derives a destination path next to the source:
// data.csv -> data.<suffix>.csv, data.csv.gz -> data.<suffix>.csv,
// data.parquet -> data.<suffix>.csv.
func defaultOutput(path, suffix string) string {
	base := path
	if strings.EqualFold(filepath.Ext(base), ".gz") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".parquet") || ext == "" {
		base = strings.TrimSuffix(base, ext)
		ext = ".csv"
	} else {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + suffix + ext
}
