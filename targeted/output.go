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

package targeted

import (
	"context"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/targetqc/interval"
	"github.com/grailbio/targetqc/metrics"
)

// TargetCoverage is the coverage summary of one target in one unit.
type TargetCoverage struct {
	Unit   metrics.Unit
	Target interval.Interval
	// GC is the target's GC fraction, NaN without a reference.
	GC           float64
	MeanCoverage float64
	// NormalizedCoverage and MinNormalizedCoverage are the target's mean and
	// minimum depth divided by the unit's MEAN_TARGET_COVERAGE.
	NormalizedCoverage    float64
	MinNormalizedCoverage float64
	// Pct0x is the fraction of the target's bases with no coverage.
	Pct0x     float64
	ReadCount int64
}

var unitCoverageColumns = []string{"accumulation_level", "sample", "library", "read_group"}

// TargetCoverageColumns are the columns of the per-target table.
var TargetCoverageColumns = append(append([]string(nil), unitCoverageColumns...),
	"chrom", "start", "end", "length", "name", "%gc",
	"mean_coverage", "normalized_coverage", "min_normalized_coverage", "pct_0x", "read_count",
)

// Row returns t's cells in TargetCoverageColumns order.
func (t TargetCoverage) Row() metrics.Row {
	row := append(metrics.Row{t.Unit.Level.String()}, unitCells(t.Unit)...)
	return append(row,
		t.Target.Contig, t.Target.Start, t.Target.End, t.Target.Length(), t.Target.Name, t.GC,
		t.MeanCoverage, t.NormalizedCoverage, t.MinNormalizedCoverage, t.Pct0x, t.ReadCount,
	)
}

// TargetCoverage returns one summary per (unit, merged target) pair, grouped
// by unit in Metrics order.  It returns nil before Finish.
func (c *Collector) TargetCoverage() []TargetCoverage {
	if c.results == nil {
		return nil
	}
	targets := c.geom.targets.Intervals()
	out := make([]TargetCoverage, 0, len(c.results)*len(targets))
	for u, m := range c.results {
		mean := m.MeanTargetCoverage
		for i, t := range targets {
			cov := &c.units[u].coverage[i]
			length := float64(t.Length())
			var zeros int
			for _, d := range cov.Depths() {
				if d == 0 {
					zeros++
				}
			}
			tc := TargetCoverage{
				Unit:         m.Unit,
				Target:       t,
				GC:           math.NaN(),
				MeanCoverage: float64(cov.Total()) / length,
				Pct0x:        float64(zeros) / length,
				ReadCount:    cov.Reads(),
			}
			tc.NormalizedCoverage = tc.MeanCoverage / mean
			tc.MinNormalizedCoverage = float64(cov.Min()) / mean
			if c.geom.gc != nil {
				tc.GC = c.geom.gc[i]
			}
			out = append(out, tc)
		}
	}
	return out
}

// WritePerTargetCoverage writes the TargetCoverage table to path.
func (c *Collector) WritePerTargetCoverage(ctx context.Context, path string) error {
	if c.results == nil {
		return errors.E(errors.Invalid, "targeted: per-target coverage written before Finish")
	}
	rows := c.TargetCoverage()
	return metrics.WriteTSV(ctx, path, TargetCoverageColumns, func(emit func(metrics.Row) error) error {
		for _, r := range rows {
			if err := emit(r.Row()); err != nil {
				return err
			}
		}
		return nil
	})
}

// PerBaseCoverageColumns are the columns of the per-base table.
var PerBaseCoverageColumns = append(append([]string(nil), unitCoverageColumns...),
	"chrom", "pos", "target", "coverage")

// WritePerBaseCoverage writes the depth of every target base of every unit
// to path.
func (c *Collector) WritePerBaseCoverage(ctx context.Context, path string) error {
	if c.results == nil {
		return errors.E(errors.Invalid, "targeted: per-base coverage written before Finish")
	}
	targets := c.geom.targets.Intervals()
	return metrics.WriteTSV(ctx, path, PerBaseCoverageColumns, func(emit func(metrics.Row) error) error {
		for u, m := range c.results {
			prefix := append(metrics.Row{m.Unit.Level.String()}, unitCells(m.Unit)...)
			for i, t := range targets {
				name := t.Name
				if name == "" {
					name = t.String()
				}
				for off, d := range c.units[u].coverage[i].Depths() {
					row := append(append(metrics.Row(nil), prefix...), t.Contig, t.Start+off, name, int(d))
					if err := emit(row); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// AddHsMetrics adds an HsMetrics section for ms to f, followed by one depth
// histogram per unit capped at coverageCap.
func AddHsMetrics(f *metrics.File, ms []TargetMetrics, coverageCap int) error {
	rows := make([]metrics.Row, len(ms))
	for i, m := range ms {
		rows[i] = HsMetricsOf(m).Row()
	}
	if err := f.AddMetrics(HsMetricsClass, HsMetricsColumns(), rows); err != nil {
		return err
	}
	addHistograms(f, ms, coverageCap)
	return nil
}

// AddTargetedPcrMetrics adds a TargetedPcrMetrics section for ms to f,
// followed by one depth histogram per unit capped at coverageCap.
func AddTargetedPcrMetrics(f *metrics.File, ms []TargetMetrics, coverageCap int) error {
	rows := make([]metrics.Row, len(ms))
	for i, m := range ms {
		rows[i] = TargetedPcrMetricsOf(m).Row()
	}
	if err := f.AddMetrics(TargetedPcrMetricsClass, TargetedPcrMetricsColumns(), rows); err != nil {
		return err
	}
	addHistograms(f, ms, coverageCap)
	return nil
}

func addHistograms(f *metrics.File, ms []TargetMetrics, coverageCap int) {
	for _, m := range ms {
		if m.DepthHistogram == nil {
			continue
		}
		f.AddHistogram(m.Unit.String(), "coverage_or_base_quality", "high_quality_coverage_count",
			m.DepthHistogram.Capped(coverageCap))
	}
}
