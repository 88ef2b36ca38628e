package metrics

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

// Row is one line of a metrics section.  Cells may be string, int, int64,
// float64, or nil for an absent value, which is written as an empty cell.
type Row []interface{}

type section struct {
	histogram bool
	class     string
	columns   []string
	rows      []Row
}

// File is a Picard-style metrics file: "#" comment lines, followed by
// sections that each start with a "## METRICS CLASS" or "## HISTOGRAM"
// line, a header row, and data rows.
type File struct {
	comments []string
	sections []section
}

// NewFile creates a File whose header records the command line and a fresh
// run identifier.
func NewFile(commandLine string) *File {
	f := &File{}
	if commandLine != "" {
		f.AddComment(commandLine)
	}
	f.AddComment("run_id: " + uuid.New().String())
	return f
}

// AddComment appends a "#" header line.
func (f *File) AddComment(line string) {
	f.comments = append(f.comments, line)
}

// AddMetrics appends a metrics section.  Every row must have one cell per
// column.
func (f *File) AddMetrics(class string, columns []string, rows []Row) error {
	for i, r := range rows {
		if len(r) != len(columns) {
			return errors.E(errors.Invalid, fmt.Sprintf("metrics: %s row %d has %d cells, want %d", class, i, len(r), len(columns)))
		}
	}
	f.sections = append(f.sections, section{class: class, columns: columns, rows: rows})
	return nil
}

// AddHistogram appends a histogram section with one row per value.
func (f *File) AddHistogram(class, valueColumn, countColumn string, h *Histogram) {
	s := section{histogram: true, class: class, columns: []string{valueColumn, countColumn}}
	for _, v := range h.Values() {
		s.rows = append(s.rows, Row{v, h.Get(v)})
	}
	f.sections = append(f.sections, s)
}

// FormatFloat renders v with at most six decimal places and no trailing
// zeros.  NaN and infinities are written as NaN, Inf and -Inf.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}

func writeCell(w *tsv.Writer, c interface{}) error {
	switch v := c.(type) {
	case nil:
		w.WriteString("")
	case string:
		w.WriteString(v)
	case int:
		w.WriteInt64(int64(v))
	case int64:
		w.WriteInt64(v)
	case float64:
		w.WriteString(FormatFloat(v))
	case fmt.Stringer:
		w.WriteString(v.String())
	default:
		return errors.E(errors.Invalid, fmt.Sprintf("metrics: unsupported cell type %T", c))
	}
	return nil
}

// Write writes f in text form.
func (f *File) Write(out io.Writer) error {
	w := tsv.NewWriter(out)
	for _, c := range f.comments {
		w.WriteString("# " + c)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	for _, s := range f.sections {
		// Sections are separated by a blank line, which the tsv writer
		// cannot emit on its own.
		if err := w.Flush(); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
		if s.histogram {
			w.WriteString("## HISTOGRAM")
		} else {
			w.WriteString("## METRICS CLASS")
		}
		w.WriteString(s.class)
		if err := w.EndLine(); err != nil {
			return err
		}
		for _, c := range s.columns {
			w.WriteString(c)
		}
		if err := w.EndLine(); err != nil {
			return err
		}
		for _, r := range s.rows {
			for _, c := range r {
				if err := writeCell(w, c); err != nil {
					return err
				}
			}
			if err := w.EndLine(); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// WriteFile writes f to path.  A ".gz" suffix selects gzip compression and
// ".lz4" selects lz4.
func (f *File) WriteFile(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "metrics: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return writeCompressed(out.Writer(ctx), path, f.Write)
}

// writeCompressed runs fn on a writer that compresses according to path's
// suffix.
func writeCompressed(w io.Writer, path string, fn func(io.Writer) error) error {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(w)
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	case strings.HasSuffix(path, ".lz4"):
		zw := lz4.NewWriter(w)
		zw.Header = lz4.Header{CompressionLevel: 9}
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	}
	return fn(w)
}

// WriteTSV writes a plain tab-separated table with a header line to path,
// compressed according to its suffix.  It is used for per-target and
// per-base coverage output.
func WriteTSV(ctx context.Context, path string, columns []string, rows func(emit func(Row) error) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "metrics: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return writeCompressed(out.Writer(ctx), path, func(wr io.Writer) error {
		w := tsv.NewWriter(wr)
		for _, c := range columns {
			w.WriteString(c)
		}
		if err := w.EndLine(); err != nil {
			return err
		}
		err := rows(func(r Row) error {
			if len(r) != len(columns) {
				return errors.E(errors.Invalid, fmt.Sprintf("metrics: row has %d cells, want %d", len(r), len(columns)))
			}
			for _, c := range r {
				if err := writeCell(w, c); err != nil {
					return err
				}
			}
			return w.EndLine()
		})
		if err != nil {
			return err
		}
		return w.Flush()
	})
}
