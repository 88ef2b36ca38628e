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
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/targetqc/interval"
	"github.com/grailbio/targetqc/metrics"
)

// ErrDegenerateTargets is returned by NewCollector, and by Finish, when the
// merged targets cover no bases, which leaves the fold-80 penalty undefined.
var ErrDegenerateTargets = errors.E(errors.Invalid, "targeted: target intervals cover no bases")

// geometry is the read-only state shared by every unit's summary.
type geometry struct {
	targets      interval.Set
	probes       interval.Set
	genomeSize   int64
	probeSetName string
	// gc holds the GC fraction of each merged target, or is nil when no
	// reference was supplied.
	gc []float64
}

// summarize derives the unit's metrics.  It does not modify s, so repeated
// calls return identical results.
func (s *unitState) summarize(unit metrics.Unit, g *geometry) (TargetMetrics, error) {
	m := TargetMetrics{
		Unit:                  unit,
		ProbeSet:              g.probeSetName,
		ProbeTerritory:        g.probes.Territory(),
		TargetTerritory:       g.targets.Territory(),
		GenomeSize:            g.genomeSize,
		TotalReads:            s.totalReads,
		PfReads:               s.pfReads,
		PfBases:               s.pfBases,
		PfUniqueReads:         s.pfUniqueReads,
		PfSelectedPairs:       s.pfSelectedPairs,
		PfSelectedUniquePairs: s.pfSelectedUniquePairs,
		PfUqReadsAligned:      s.pfUqReadsAligned,
		PfUqBasesAligned:      s.pfUqBasesAligned,
		OnProbeBases:          s.onProbeBases,
		NearProbeBases:        s.nearProbeBases,
		OffProbeBases:         s.offProbeBases,
		OnTargetBases:         s.onTargetBases,
		OnTargetFromPairBases: s.onTargetFromPairBases,
	}
	m.PctPfReads = float64(m.PfReads) / float64(m.TotalReads)
	m.PctPfUqReads = float64(m.PfUniqueReads) / float64(m.TotalReads)
	m.PctPfUqReadsAligned = float64(m.PfUqReadsAligned) / float64(m.PfUniqueReads)

	selected := float64(m.OnProbeBases + m.NearProbeBases)
	denominator := selected + float64(m.OffProbeBases)
	m.PctSelectedBases = selected / denominator
	m.PctOffProbe = float64(m.OffProbeBases) / denominator
	m.OnProbeVsSelected = float64(m.OnProbeBases) / selected
	m.MeanProbeCoverage = float64(m.OnProbeBases) / float64(m.ProbeTerritory)
	m.FoldEnrichment = (float64(m.OnProbeBases) / denominator) / (float64(m.ProbeTerritory) / float64(m.GenomeSize))

	m.PctExcMapQ = float64(s.excludedMapQBases) / float64(s.basesExamined)
	m.PctExcBaseQ = float64(s.excludedBaseQ) / float64(s.basesExamined)

	if err := s.coverageMetrics(&m, g); err != nil {
		return TargetMetrics{}, err
	}
	s.gcMetrics(&m, g)

	size, err := estimateLibrarySize(m.PfSelectedPairs, m.PfSelectedUniquePairs)
	switch {
	case err == nil:
		m.HsLibrarySize = &size
	case err != errNoDuplicates:
		log.Error.Printf("targeted: %v: library size: %v", unit, err)
	}
	for i, goal := range PenaltyGoals {
		m.HsPenalty[i] = hsPenalty(&m, goal)
	}
	return m, nil
}

// coverageMetrics fills in the depth-derived fields of m.
func (s *unitState) coverageMetrics(m *TargetMetrics, g *geometry) error {
	territory := m.TargetTerritory
	if territory <= 0 {
		return ErrDegenerateTargets
	}
	var (
		// allDepths and consideredDepths count bases by depth, over every
		// target and over targets with coverage respectively.
		allDepths        = make([]int64, math.MaxUint16+1)
		consideredDepths = make([]int64, math.MaxUint16+1)
		hist             = &metrics.Histogram{}
		zeroTargets      int
		considered       int64
		totalCoverage    float64
	)
	for i := range s.coverage {
		c := &s.coverage[i]
		hasCoverage := c.HasCoverage()
		if !hasCoverage {
			zeroTargets++
			hist.Increment(0, int64(c.Len()))
		} else {
			considered += int64(c.Len())
		}
		for _, d := range c.Depths() {
			allDepths[d]++
			if hasCoverage {
				consideredDepths[d]++
				totalCoverage += float64(d)
			}
		}
	}
	consideredHist := &metrics.Histogram{}
	for d, n := range consideredDepths {
		if n > 0 {
			hist.Increment(d, n)
			consideredHist.Increment(d, n)
		}
	}
	m.DepthHistogram = hist
	m.MeanTargetCoverage = totalCoverage / float64(considered)
	m.MedianTargetCoverage = hist.Median()

	var totalBases int64
	m.MinTargetCoverage = -1
	for d, n := range allDepths {
		if n == 0 {
			continue
		}
		if m.MinTargetCoverage < 0 {
			m.MinTargetCoverage = int64(d)
		}
		m.MaxTargetCoverage = int64(d)
		totalBases += n
	}
	if m.MinTargetCoverage < 0 {
		m.MinTargetCoverage = 0
	}

	// The fold-80 depth is read from the ascending depths of all territory
	// bases, where bases of uncovered targets sort first as zeros.
	uncovered := territory - considered
	idx := uncovered - 1 + int64(float64(considered)*0.2)
	if idx < 0 {
		idx = 0
	}
	var depthAt80 int
	if idx >= uncovered {
		depthAt80 = consideredHist.ValueAtRank(idx - uncovered)
	}
	m.Fold80BasePenalty = m.MeanTargetCoverage / float64(depthAt80)
	m.ZeroCvgTargetsPct = float64(zeroTargets) / float64(len(s.coverage))

	m.PctTargetBases[0] = float64(territory-hist.Get(0)) / float64(territory)
	for i := 1; i < len(CoverageThresholds); i++ {
		var n int64
		for d := CoverageThresholds[i]; d < len(allDepths); d++ {
			n += allDepths[d]
		}
		m.PctTargetBases[i] = float64(n) / float64(totalBases)
	}
	return nil
}

// gcMetrics fills in the GC dropout fields of m.  The sums start from zero
// on every call.
func (s *unitState) gcMetrics(m *TargetMetrics, g *geometry) {
	if g.gc == nil {
		return
	}
	var targetBases, alignedBases [metrics.GCBins]float64
	for i, t := range g.targets.Intervals() {
		if t.Length() <= 0 {
			log.Debug.Printf("targeted: zero-length target %v skipped", t)
			continue
		}
		gc := g.gc[i]
		if math.IsNaN(gc) {
			continue
		}
		bin := int(math.Round(gc * 100))
		targetBases[bin] += float64(t.Length())
		alignedBases[bin] += float64(s.coverage[i].Total())
	}
	m.AtDropout, m.GcDropout = metrics.Dropout(targetBases[:], alignedBases[:])
}
