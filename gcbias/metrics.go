// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gcbias

import (
	"math"

	"github.com/grailbio/targetqc/metrics"
)

// DetailMetrics describes the reads starting in windows of one GC
// percentage.
type DetailMetrics struct {
	Unit      metrics.Unit
	ReadsUsed string
	GC        int
	// Windows is the number of reference windows with this GC.
	Windows    int64
	ReadStarts int64
	// MeanBaseQuality is the Phred-scaled error rate of the aligned bases, or
	// zero when no error was seen.
	MeanBaseQuality int
	// NormalizedCoverage is the read starts per window relative to the
	// genome-wide mean.  ErrorBarWidth is its Poisson error.  Both are zero
	// when there are no windows.
	NormalizedCoverage float64
	ErrorBarWidth      float64
}

// SummaryMetrics summarizes the GC bias of one unit.
type SummaryMetrics struct {
	Unit          metrics.Unit
	ReadsUsed     string
	WindowSize    int
	TotalClusters int64
	AlignedReads  int64
	AtDropout     float64
	GcDropout     float64
	// GcNc holds the normalized coverage over the GC ranges 0-19, 20-39,
	// 40-59, 60-79 and 80-100.
	GcNc [5]float64
}

// Result holds the metrics of one unit and reads-used value.
type Result struct {
	Summary SummaryMetrics
	Details []DetailMetrics
}

// gcNcRanges are the inclusive GC ranges of SummaryMetrics.GcNc.
var gcNcRanges = [5][2]int{{0, 19}, {20, 39}, {40, 59}, {60, 79}, {80, 100}}

// phred returns the Phred score of an error rate, rounded.
func phred(errors, bases int64) int {
	return int(math.Round(-10 * math.Log10(float64(errors)/float64(bases))))
}

// result computes the metrics of t.  It returns false if t has no aligned
// reads.
func (c *Collector) result(u metrics.Unit, readsUsed string, t *tallies) (Result, bool) {
	if t.alignedReads == 0 {
		return Result{}, false
	}
	var (
		windows      = &c.windows.Counts
		totalWindows int64
		totalReads   int64
	)
	for i := range windows {
		totalWindows += windows[i]
		totalReads += t.reads[i]
	}
	mean := float64(totalReads) / float64(totalWindows)

	r := Result{Details: make([]DetailMetrics, metrics.GCBins)}
	var expected, observed [metrics.GCBins]float64
	for i := range r.Details {
		d := DetailMetrics{
			Unit:       u,
			ReadsUsed:  readsUsed,
			GC:         i,
			Windows:    windows[i],
			ReadStarts: t.reads[i],
		}
		if t.errors[i] > 0 {
			d.MeanBaseQuality = phred(t.errors[i], t.bases[i])
		}
		if windows[i] > 0 {
			n := float64(t.reads[i])
			w := float64(windows[i])
			d.NormalizedCoverage = n / w / mean
			d.ErrorBarWidth = math.Sqrt(n) / w / mean
		}
		r.Details[i] = d
		expected[i] = float64(windows[i])
		observed[i] = float64(t.reads[i])
	}

	r.Summary = SummaryMetrics{
		Unit:          u,
		ReadsUsed:     readsUsed,
		WindowSize:    c.windows.Size,
		TotalClusters: t.totalClusters,
		AlignedReads:  t.alignedReads,
	}
	r.Summary.AtDropout, r.Summary.GcDropout = metrics.Dropout(expected[:], observed[:])
	for k, rg := range gcNcRanges {
		r.Summary.GcNc[k] = normalizedCoverage(windows[:], t.reads[:], rg[0], rg[1], mean)
	}
	return r, true
}

// normalizedCoverage returns the read starts per window over the GC range
// [lo, hi] relative to mean.  Bins without windows are skipped.
func normalizedCoverage(windows, reads []int64, lo, hi int, mean float64) float64 {
	var nWindows, nReads int64
	for i := lo; i <= hi; i++ {
		if windows[i] == 0 {
			continue
		}
		nWindows += windows[i]
		nReads += reads[i]
	}
	if nWindows == 0 {
		return 0
	}
	return float64(nReads) / (float64(nWindows) * mean)
}

// Metrics classes.
const (
	DetailMetricsClass  = "targetqc.GcBiasDetailMetrics"
	SummaryMetricsClass = "targetqc.GcBiasSummaryMetrics"
)

var unitColumns = []string{"SAMPLE", "LIBRARY", "READ_GROUP"}

func unitCells(u metrics.Unit) metrics.Row {
	cell := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}
	return metrics.Row{u.Level.String(), cell(u.Sample), cell(u.Library), cell(u.ReadGroup)}
}

// DetailColumns returns the column names of DetailMetrics rows.
func DetailColumns() []string {
	cols := []string{"ACCUMULATION_LEVEL", "READS_USED", "GC", "WINDOWS", "READ_STARTS",
		"MEAN_BASE_QUALITY", "NORMALIZED_COVERAGE", "ERROR_BAR_WIDTH"}
	return append(cols, unitColumns...)
}

// Row returns d's cells in DetailColumns order.
func (d DetailMetrics) Row() metrics.Row {
	cells := unitCells(d.Unit)
	row := metrics.Row{cells[0], d.ReadsUsed, d.GC, d.Windows, d.ReadStarts,
		d.MeanBaseQuality, d.NormalizedCoverage, d.ErrorBarWidth}
	return append(row, cells[1:]...)
}

// SummaryColumns returns the column names of SummaryMetrics rows.
func SummaryColumns() []string {
	cols := []string{"ACCUMULATION_LEVEL", "READS_USED", "WINDOW_SIZE", "TOTAL_CLUSTERS", "ALIGNED_READS",
		"AT_DROPOUT", "GC_DROPOUT", "GC_NC_0_19", "GC_NC_20_39", "GC_NC_40_59", "GC_NC_60_79", "GC_NC_80_100"}
	return append(cols, unitColumns...)
}

// Row returns s's cells in SummaryColumns order.
func (s SummaryMetrics) Row() metrics.Row {
	cells := unitCells(s.Unit)
	row := metrics.Row{cells[0], s.ReadsUsed, s.WindowSize, s.TotalClusters, s.AlignedReads,
		s.AtDropout, s.GcDropout}
	for _, v := range s.GcNc {
		row = append(row, v)
	}
	return append(row, cells[1:]...)
}

// AddDetails adds a detail section for rs to f.
func AddDetails(f *metrics.File, rs []Result) error {
	var rows []metrics.Row
	for _, r := range rs {
		for _, d := range r.Details {
			rows = append(rows, d.Row())
		}
	}
	return f.AddMetrics(DetailMetricsClass, DetailColumns(), rows)
}

// AddSummary adds a summary section for rs to f.
func AddSummary(f *metrics.File, rs []Result) error {
	rows := make([]metrics.Row, len(rs))
	for i, r := range rs {
		rows[i] = r.Summary.Row()
	}
	return f.AddMetrics(SummaryMetricsClass, SummaryColumns(), rows)
}
