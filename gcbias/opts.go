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
	"github.com/grailbio/targetqc/metrics"
)

// Opts defines the behavior of a Collector.
type Opts struct {
	// WindowSize is the length of the reference windows over which GC is
	// measured.
	WindowSize int
	// Bisulfite treats C->T (and G->A on the reverse strand) as matches when
	// counting read errors.
	Bisulfite bool
	// IgnoreDuplicates additionally reports every unit computed without
	// duplicate reads.
	IgnoreDuplicates bool
	// Levels lists the accumulation levels to report.
	Levels []metrics.AccumulationLevel
	// StopAfter, if positive, stops accepting records after this many.
	StopAfter int64
	// Parallelism bounds the number of sequences whose windows are computed
	// at once.  Zero means one per CPU.
	Parallelism int
}

// DefaultOpts holds the default options.
var DefaultOpts = Opts{
	WindowSize: 100,
	Levels:     []metrics.AccumulationLevel{metrics.AllReads},
}
