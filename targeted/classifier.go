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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/targetqc/interval"
)

// tallies are the raw counters one accumulation unit collects while reads
// stream in.
type tallies struct {
	totalReads            int64
	pfReads               int64
	pfBases               int64
	pfUniqueReads         int64
	pfSelectedPairs       int64
	pfSelectedUniquePairs int64
	pfUqReadsAligned      int64
	pfUqBasesAligned      int64
	onProbeBases          int64
	nearProbeBases        int64
	offProbeBases         int64
	onTargetBases         int64
	onTargetFromPairBases int64

	// basesExamined is the denominator of the exclusion fractions.
	basesExamined     int64
	excludedMapQBases int64
	excludedBaseQ     int64
}

// unitState is everything one unit accumulates.
type unitState struct {
	tallies
	// coverage is indexed like the merged target set.
	coverage []Coverage
}

func newUnitState(targets []interval.Interval) *unitState {
	s := &unitState{coverage: make([]Coverage, len(targets))}
	for i, t := range targets {
		s.coverage[i] = NewCoverage(t.Length())
	}
	return s
}

// readLength returns the number of bases in rec, falling back to the CIGAR
// when the sequence is absent.
func readLength(rec *sam.Record) int {
	if rec.Seq.Length > 0 {
		return rec.Seq.Length
	}
	if len(rec.Qual) > 0 {
		return len(rec.Qual)
	}
	_, n := rec.Cigar.Lengths()
	return n
}

// qualityPasses reports whether the base at read offset i meets min.  A
// missing quality (0xff, or no quality string at all) counts as zero.
func qualityPasses(qual []byte, i, min int) bool {
	if i >= len(qual) || qual[i] == 0xff {
		return min <= 0
	}
	return int(qual[i]) >= min
}

// read is one record prepared for classification.  The overlaps are shared
// by every unit the record feeds.
type read struct {
	rec     *sam.Record
	view    ClippedView
	targets []int
	probes  []int
}

// classify updates s with one record.  Secondary and low mapping quality
// records have already been screened by the caller.
func (s *unitState) classify(r *read, opts *Opts, targets, probes []interval.Interval) {
	rec := r.rec
	flags := rec.Flags
	primary := flags&sam.Supplementary == 0
	n := readLength(rec)
	s.basesExamined += int64(n)
	if primary {
		s.totalReads++
	}
	if flags&sam.QCFail != 0 {
		return
	}

	var basesAtMinQ int64
	for i := 0; i < n; i++ {
		if qualityPasses(rec.Qual, i, opts.MinBaseQuality) {
			basesAtMinQ++
		} else {
			s.excludedBaseQ++
		}
	}

	mapped := !r.view.Unmapped
	if primary {
		s.pfReads++
		s.pfBases += basesAtMinQ
		if flags&sam.Paired != 0 && flags&sam.Read1 != 0 && mapped && flags&sam.MateUnmapped == 0 && len(r.probes) > 0 {
			s.pfSelectedPairs++
			if flags&sam.Duplicate == 0 {
				s.pfSelectedUniquePairs++
			}
		}
	}

	if flags&sam.Duplicate != 0 {
		return
	}
	if primary {
		s.pfUniqueReads++
	}
	if !mapped || rec.MapQ == 0 {
		return
	}
	if primary {
		s.pfUqReadsAligned++
	}

	var mappedBases int64
	for _, b := range r.view.Blocks {
		for i := 0; i < b.Length; i++ {
			if qualityPasses(rec.Qual, b.ReadStart+i, opts.MinBaseQuality) {
				mappedBases++
			}
		}
	}
	s.pfUqBasesAligned += mappedBases

	fromPair := flags&sam.Paired != 0 && flags&sam.MateUnmapped == 0 && primary
	for _, ti := range r.targets {
		t := targets[ti]
		cov := &s.coverage[ti]
		added := false
		for _, b := range r.view.Blocks {
			lo, hi := overlapRange(b, t)
			for pos := lo; pos <= hi; pos++ {
				if !qualityPasses(rec.Qual, b.ReadStart+pos-b.RefStart, opts.MinBaseQuality) {
					continue
				}
				s.onTargetBases++
				if fromPair {
					s.onTargetFromPairBases++
				}
				cov.AddBase(pos - t.Start)
				added = true
			}
		}
		if added {
			cov.addRead()
		}
	}

	if len(r.probes) == 0 {
		s.offProbeBases += mappedBases
		return
	}
	var onProbe int64
	for _, pi := range r.probes {
		p := probes[pi]
		for _, b := range r.view.Blocks {
			lo, hi := overlapRange(b, p)
			for pos := lo; pos <= hi; pos++ {
				if qualityPasses(rec.Qual, b.ReadStart+pos-b.RefStart, opts.MinBaseQuality) {
					onProbe++
				}
			}
		}
	}
	s.onProbeBases += onProbe
	s.nearProbeBases += mappedBases - onProbe
}

// overlapRange returns the 1-based closed range of reference positions
// shared by b and iv.  The range is empty (lo > hi) when they are disjoint.
func overlapRange(b Block, iv interval.Interval) (lo, hi int) {
	lo, hi = b.RefStart, b.RefEnd()
	if iv.Start > lo {
		lo = iv.Start
	}
	if iv.End < hi {
		hi = iv.End
	}
	return lo, hi
}
