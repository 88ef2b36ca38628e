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

/*
bio-targetqc computes quality-control metrics for targeted sequencing runs
from an aligned BAM or SAM file.

	bio-targetqc hs -probes baits.interval_list -targets targets.interval_list \
		-out sample.hs_metrics sample.bam
	bio-targetqc pcr -probes amplicons.bed -targets targets.bed -out sample.pcr_metrics sample.bam
	bio-targetqc gcbias -reference hg38.fa -out sample.gc_bias_metrics sample.bam
	bio-targetqc intervals -dict sample.bam -out targets.interval_list targets.bed

The hs and pcr subcommands write hybrid-selection and amplicon metrics
respectively, one row per accumulation unit, followed by a depth histogram per
unit.  Optional per-target and per-base coverage tables hold one block of
rows per unit.  The gcbias subcommand writes per-GC detail metrics and a
summary file.  The intervals subcommand converts BED to interval_list and
reports the merged territory.

Output paths ending in .gz or .lz4 are compressed.
*/
package main
