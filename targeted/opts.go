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
	"github.com/grailbio/targetqc/metrics"
)

// Opts defines the behavior of a Collector.
type Opts struct {
	// MinMappingQuality drops reads mapped below this quality.  Their bases
	// count toward PCT_EXC_MAPQ.
	MinMappingQuality int
	// MinBaseQuality ignores bases below this quality.  They count toward
	// PCT_EXC_BASEQ.
	MinBaseQuality int
	// NearDistance is how far from a probe a base may lie and still count as
	// near the probe rather than off it.
	NearDistance int
	// ClipOverlappingReads clips the left-most read of an overlapping pair so
	// that the overlap is counted once.
	ClipOverlappingReads bool
	// CoverageCap bounds the depth histogram written with the metrics.
	CoverageCap int
	// Levels lists the accumulation levels to report.
	Levels []metrics.AccumulationLevel
	// ProbeSetName is written as the probe, bait or amplicon set name.  When
	// empty, it is derived from the probe file name.
	ProbeSetName string
	// PerTargetCoverage, if set, is the path of a table with one row per
	// (unit, target) pair.
	PerTargetCoverage string
	// PerBaseCoverage, if set, is the path of a table with the depth of
	// every target base in every unit.
	PerBaseCoverage string
	// StopAfter, if positive, stops accepting records after this many.
	StopAfter int64
	// Parallelism bounds the setup and summarization fan-out.  Zero means
	// one worker per CPU.
	Parallelism int
}

// DefaultOpts holds the default options.
var DefaultOpts = Opts{
	MinMappingQuality:    20,
	MinBaseQuality:       2,
	NearDistance:         250,
	ClipOverlappingReads: true,
	CoverageCap:          200,
	Levels:               []metrics.AccumulationLevel{metrics.AllReads},
}
