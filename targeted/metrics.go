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
	"fmt"

	"github.com/grailbio/targetqc/metrics"
)

// CoverageThresholds are the depths for which the fraction of target bases
// at or above the depth is reported.
var CoverageThresholds = [...]int{1, 2, 10, 20, 30, 40, 50, 100}

// PenaltyGoals are the coverage goals for which the HS penalty is reported.
var PenaltyGoals = [...]int{10, 20, 30, 40, 50, 100}

// TargetMetrics is the assay-independent summary of one accumulation unit.
// Ratios with a zero denominator are NaN or infinite.
type TargetMetrics struct {
	Unit metrics.Unit

	ProbeSet       string
	ProbeTerritory int64
	// TargetTerritory is the number of distinct target bases.
	TargetTerritory int64
	GenomeSize      int64

	TotalReads            int64
	PfReads               int64
	PfBases               int64
	PfUniqueReads         int64
	PfSelectedPairs       int64
	PfSelectedUniquePairs int64
	PfUqReadsAligned      int64
	PfUqBasesAligned      int64
	OnProbeBases          int64
	NearProbeBases        int64
	OffProbeBases         int64
	OnTargetBases         int64
	OnTargetFromPairBases int64

	PctPfReads          float64
	PctPfUqReads        float64
	PctPfUqReadsAligned float64
	PctSelectedBases    float64
	PctOffProbe         float64
	OnProbeVsSelected   float64
	MeanProbeCoverage   float64
	FoldEnrichment      float64

	MeanTargetCoverage   float64
	MedianTargetCoverage float64
	MaxTargetCoverage    int64
	MinTargetCoverage    int64
	ZeroCvgTargetsPct    float64
	Fold80BasePenalty    float64
	// PctTargetBases is indexed like CoverageThresholds.
	PctTargetBases [len(CoverageThresholds)]float64

	PctExcMapQ  float64
	PctExcBaseQ float64

	// HsLibrarySize is nil when no duplicate selected pairs were seen.
	HsLibrarySize *int64
	// HsPenalty is indexed like PenaltyGoals.
	HsPenalty [len(PenaltyGoals)]float64

	AtDropout float64
	GcDropout float64

	// DepthHistogram counts target bases by depth.  Targets without coverage
	// contribute their whole length at depth zero.
	DepthHistogram *metrics.Histogram
}

// HsMetrics is TargetMetrics under hybrid-selection naming, with the
// bait-specific derived values.
type HsMetrics struct {
	Unit metrics.Unit

	BaitSet              string
	GenomeSize           int64
	BaitTerritory        int64
	TargetTerritory      int64
	BaitDesignEfficiency float64

	TotalReads          int64
	PfReads             int64
	PfUniqueReads       int64
	PctPfReads          float64
	PctPfUqReads        float64
	PfUqReadsAligned    int64
	PctPfUqReadsAligned float64
	PfBases             int64
	PfUqBasesAligned    int64

	OnBaitBases      int64
	NearBaitBases    int64
	OffBaitBases     int64
	OnTargetBases    int64
	PctSelectedBases float64
	PctOffBait       float64
	OnBaitVsSelected float64
	MeanBaitCoverage float64

	MeanTargetCoverage     float64
	MedianTargetCoverage   float64
	MaxTargetCoverage      int64
	MinTargetCoverage      int64
	PctUsableBasesOnBait   float64
	PctUsableBasesOnTarget float64
	FoldEnrichment         float64
	ZeroCvgTargetsPct      float64
	PctExcMapQ             float64
	PctExcBaseQ            float64
	Fold80BasePenalty      float64
	PctTargetBases         [len(CoverageThresholds)]float64
	HsLibrarySize          *int64
	HsPenalty              [len(PenaltyGoals)]float64
	AtDropout              float64
	GcDropout              float64
}

// TargetedPcrMetrics is TargetMetrics under amplicon naming.
type TargetedPcrMetrics struct {
	Unit metrics.Unit

	CustomAmpliconSet string
	GenomeSize        int64
	AmpliconTerritory int64
	TargetTerritory   int64

	TotalReads          int64
	PfReads             int64
	PfBases             int64
	PfUniqueReads       int64
	PctPfReads          float64
	PctPfUqReads        float64
	PfUqReadsAligned    int64
	PctPfUqReadsAligned float64
	PfUqBasesAligned    int64

	OnAmpliconBases       int64
	NearAmpliconBases     int64
	OffAmpliconBases      int64
	OnTargetBases         int64
	OnTargetFromPairBases int64
	PctAmplifiedBases     float64
	PctOffAmplicon        float64
	OnAmpliconVsSelected  float64
	MeanAmpliconCoverage  float64

	MeanTargetCoverage   float64
	MedianTargetCoverage float64
	MaxTargetCoverage    int64
	MinTargetCoverage    int64
	FoldEnrichment       float64
	ZeroCvgTargetsPct    float64
	PctExcMapQ           float64
	PctExcBaseQ          float64
	Fold80BasePenalty    float64
	PctTargetBases       [len(CoverageThresholds)]float64
	AtDropout            float64
	GcDropout            float64
}

// HsMetricsOf converts m to hybrid-selection naming.
func HsMetricsOf(m TargetMetrics) HsMetrics {
	return HsMetrics{
		Unit:                   m.Unit,
		BaitSet:                m.ProbeSet,
		GenomeSize:             m.GenomeSize,
		BaitTerritory:          m.ProbeTerritory,
		TargetTerritory:        m.TargetTerritory,
		BaitDesignEfficiency:   float64(m.TargetTerritory) / float64(m.ProbeTerritory),
		TotalReads:             m.TotalReads,
		PfReads:                m.PfReads,
		PfUniqueReads:          m.PfUniqueReads,
		PctPfReads:             m.PctPfReads,
		PctPfUqReads:           m.PctPfUqReads,
		PfUqReadsAligned:       m.PfUqReadsAligned,
		PctPfUqReadsAligned:    m.PctPfUqReadsAligned,
		PfBases:                m.PfBases,
		PfUqBasesAligned:       m.PfUqBasesAligned,
		OnBaitBases:            m.OnProbeBases,
		NearBaitBases:          m.NearProbeBases,
		OffBaitBases:           m.OffProbeBases,
		OnTargetBases:          m.OnTargetBases,
		PctSelectedBases:       m.PctSelectedBases,
		PctOffBait:             m.PctOffProbe,
		OnBaitVsSelected:       m.OnProbeVsSelected,
		MeanBaitCoverage:       m.MeanProbeCoverage,
		MeanTargetCoverage:     m.MeanTargetCoverage,
		MedianTargetCoverage:   m.MedianTargetCoverage,
		MaxTargetCoverage:      m.MaxTargetCoverage,
		MinTargetCoverage:      m.MinTargetCoverage,
		PctUsableBasesOnBait:   float64(m.OnProbeBases) / float64(m.PfBases),
		PctUsableBasesOnTarget: float64(m.OnTargetBases) / float64(m.PfBases),
		FoldEnrichment:         m.FoldEnrichment,
		ZeroCvgTargetsPct:      m.ZeroCvgTargetsPct,
		PctExcMapQ:             m.PctExcMapQ,
		PctExcBaseQ:            m.PctExcBaseQ,
		Fold80BasePenalty:      m.Fold80BasePenalty,
		PctTargetBases:         m.PctTargetBases,
		HsLibrarySize:          m.HsLibrarySize,
		HsPenalty:              m.HsPenalty,
		AtDropout:              m.AtDropout,
		GcDropout:              m.GcDropout,
	}
}

// TargetedPcrMetricsOf converts m to amplicon naming.
func TargetedPcrMetricsOf(m TargetMetrics) TargetedPcrMetrics {
	return TargetedPcrMetrics{
		Unit:                  m.Unit,
		CustomAmpliconSet:     m.ProbeSet,
		GenomeSize:            m.GenomeSize,
		AmpliconTerritory:     m.ProbeTerritory,
		TargetTerritory:       m.TargetTerritory,
		TotalReads:            m.TotalReads,
		PfReads:               m.PfReads,
		PfBases:               m.PfBases,
		PfUniqueReads:         m.PfUniqueReads,
		PctPfReads:            m.PctPfReads,
		PctPfUqReads:          m.PctPfUqReads,
		PfUqReadsAligned:      m.PfUqReadsAligned,
		PctPfUqReadsAligned:   m.PctPfUqReadsAligned,
		PfUqBasesAligned:      m.PfUqBasesAligned,
		OnAmpliconBases:       m.OnProbeBases,
		NearAmpliconBases:     m.NearProbeBases,
		OffAmpliconBases:      m.OffProbeBases,
		OnTargetBases:         m.OnTargetBases,
		OnTargetFromPairBases: m.OnTargetFromPairBases,
		PctAmplifiedBases:     m.PctSelectedBases,
		PctOffAmplicon:        m.PctOffProbe,
		OnAmpliconVsSelected:  m.OnProbeVsSelected,
		MeanAmpliconCoverage:  m.MeanProbeCoverage,
		MeanTargetCoverage:    m.MeanTargetCoverage,
		MedianTargetCoverage:  m.MedianTargetCoverage,
		MaxTargetCoverage:     m.MaxTargetCoverage,
		MinTargetCoverage:     m.MinTargetCoverage,
		FoldEnrichment:        m.FoldEnrichment,
		ZeroCvgTargetsPct:     m.ZeroCvgTargetsPct,
		PctExcMapQ:            m.PctExcMapQ,
		PctExcBaseQ:           m.PctExcBaseQ,
		Fold80BasePenalty:     m.Fold80BasePenalty,
		PctTargetBases:        m.PctTargetBases,
		AtDropout:             m.AtDropout,
		GcDropout:             m.GcDropout,
	}
}

var unitColumns = []string{"SAMPLE", "LIBRARY", "READ_GROUP"}

func unitCells(u metrics.Unit) metrics.Row {
	cell := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}
	return metrics.Row{cell(u.Sample), cell(u.Library), cell(u.ReadGroup)}
}

func thresholdColumns() []string {
	cols := make([]string, len(CoverageThresholds))
	for i, t := range CoverageThresholds {
		cols[i] = fmt.Sprintf("PCT_TARGET_BASES_%dX", t)
	}
	return cols
}

func penaltyColumns() []string {
	cols := make([]string, len(PenaltyGoals))
	for i, g := range PenaltyGoals {
		cols[i] = fmt.Sprintf("HS_PENALTY_%dX", g)
	}
	return cols
}

// HsMetricsClass is the metrics class written for HsMetrics.
const HsMetricsClass = "targetqc.HsMetrics"

// HsMetricsColumns returns the column names of an HsMetrics section.
func HsMetricsColumns() []string {
	cols := []string{
		"BAIT_SET", "GENOME_SIZE", "BAIT_TERRITORY", "TARGET_TERRITORY", "BAIT_DESIGN_EFFICIENCY",
		"TOTAL_READS", "PF_READS", "PF_UNIQUE_READS", "PCT_PF_READS", "PCT_PF_UQ_READS",
		"PF_UQ_READS_ALIGNED", "PCT_PF_UQ_READS_ALIGNED", "PF_BASES", "PF_UQ_BASES_ALIGNED",
		"ON_BAIT_BASES", "NEAR_BAIT_BASES", "OFF_BAIT_BASES", "ON_TARGET_BASES",
		"PCT_SELECTED_BASES", "PCT_OFF_BAIT", "ON_BAIT_VS_SELECTED", "MEAN_BAIT_COVERAGE",
		"MEAN_TARGET_COVERAGE", "MEDIAN_TARGET_COVERAGE", "MAX_TARGET_COVERAGE", "MIN_TARGET_COVERAGE",
		"PCT_USABLE_BASES_ON_BAIT", "PCT_USABLE_BASES_ON_TARGET", "FOLD_ENRICHMENT",
		"ZERO_CVG_TARGETS_PCT", "PCT_EXC_MAPQ", "PCT_EXC_BASEQ", "FOLD_80_BASE_PENALTY",
	}
	cols = append(cols, thresholdColumns()...)
	cols = append(cols, "HS_LIBRARY_SIZE")
	cols = append(cols, penaltyColumns()...)
	cols = append(cols, "AT_DROPOUT", "GC_DROPOUT")
	return append(cols, unitColumns...)
}

// Row returns m's cells in HsMetricsColumns order.
func (m HsMetrics) Row() metrics.Row {
	row := metrics.Row{
		m.BaitSet, m.GenomeSize, m.BaitTerritory, m.TargetTerritory, m.BaitDesignEfficiency,
		m.TotalReads, m.PfReads, m.PfUniqueReads, m.PctPfReads, m.PctPfUqReads,
		m.PfUqReadsAligned, m.PctPfUqReadsAligned, m.PfBases, m.PfUqBasesAligned,
		m.OnBaitBases, m.NearBaitBases, m.OffBaitBases, m.OnTargetBases,
		m.PctSelectedBases, m.PctOffBait, m.OnBaitVsSelected, m.MeanBaitCoverage,
		m.MeanTargetCoverage, m.MedianTargetCoverage, m.MaxTargetCoverage, m.MinTargetCoverage,
		m.PctUsableBasesOnBait, m.PctUsableBasesOnTarget, m.FoldEnrichment,
		m.ZeroCvgTargetsPct, m.PctExcMapQ, m.PctExcBaseQ, m.Fold80BasePenalty,
	}
	for _, v := range m.PctTargetBases {
		row = append(row, v)
	}
	if m.HsLibrarySize != nil {
		row = append(row, *m.HsLibrarySize)
	} else {
		row = append(row, nil)
	}
	for _, v := range m.HsPenalty {
		row = append(row, v)
	}
	row = append(row, m.AtDropout, m.GcDropout)
	return append(row, unitCells(m.Unit)...)
}

// TargetedPcrMetricsClass is the metrics class written for
// TargetedPcrMetrics.
const TargetedPcrMetricsClass = "targetqc.TargetedPcrMetrics"

// TargetedPcrMetricsColumns returns the column names of a
// TargetedPcrMetrics section.
func TargetedPcrMetricsColumns() []string {
	cols := []string{
		"CUSTOM_AMPLICON_SET", "GENOME_SIZE", "AMPLICON_TERRITORY", "TARGET_TERRITORY",
		"TOTAL_READS", "PF_READS", "PF_BASES", "PF_UNIQUE_READS", "PCT_PF_READS", "PCT_PF_UQ_READS",
		"PF_UQ_READS_ALIGNED", "PCT_PF_UQ_READS_ALIGNED", "PF_UQ_BASES_ALIGNED",
		"ON_AMPLICON_BASES", "NEAR_AMPLICON_BASES", "OFF_AMPLICON_BASES", "ON_TARGET_BASES",
		"ON_TARGET_FROM_PAIR_BASES", "PCT_AMPLIFIED_BASES", "PCT_OFF_AMPLICON",
		"ON_AMPLICON_VS_SELECTED", "MEAN_AMPLICON_COVERAGE",
		"MEAN_TARGET_COVERAGE", "MEDIAN_TARGET_COVERAGE", "MAX_TARGET_COVERAGE", "MIN_TARGET_COVERAGE",
		"FOLD_ENRICHMENT", "ZERO_CVG_TARGETS_PCT", "PCT_EXC_MAPQ", "PCT_EXC_BASEQ",
		"FOLD_80_BASE_PENALTY",
	}
	cols = append(cols, thresholdColumns()...)
	cols = append(cols, "AT_DROPOUT", "GC_DROPOUT")
	return append(cols, unitColumns...)
}

// Row returns m's cells in TargetedPcrMetricsColumns order.
func (m TargetedPcrMetrics) Row() metrics.Row {
	row := metrics.Row{
		m.CustomAmpliconSet, m.GenomeSize, m.AmpliconTerritory, m.TargetTerritory,
		m.TotalReads, m.PfReads, m.PfBases, m.PfUniqueReads, m.PctPfReads, m.PctPfUqReads,
		m.PfUqReadsAligned, m.PctPfUqReadsAligned, m.PfUqBasesAligned,
		m.OnAmpliconBases, m.NearAmpliconBases, m.OffAmpliconBases, m.OnTargetBases,
		m.OnTargetFromPairBases, m.PctAmplifiedBases, m.PctOffAmplicon,
		m.OnAmpliconVsSelected, m.MeanAmpliconCoverage,
		m.MeanTargetCoverage, m.MedianTargetCoverage, m.MaxTargetCoverage, m.MinTargetCoverage,
		m.FoldEnrichment, m.ZeroCvgTargetsPct, m.PctExcMapQ, m.PctExcBaseQ,
		m.Fold80BasePenalty,
	}
	for _, v := range m.PctTargetBases {
		row = append(row, v)
	}
	row = append(row, m.AtDropout, m.GcDropout)
	return append(row, unitCells(m.Unit)...)
}
