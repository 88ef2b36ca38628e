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

// Package targeted computes coverage metrics for targeted sequencing: hybrid
// selection, where a probe (bait) set pulls down a target set, and targeted
// PCR, where amplicons play the role of the probes.
//
// A Collector consumes aligned records in a single forward pass.  Each record
// is attributed to the accumulation units (all reads, sample, library, read
// group) it belongs to, and each unit tallies read and base counts and keeps a
// per-base depth array for every merged target.  Finish summarizes every unit
// into a TargetMetrics record, which HsMetricsOf and TargetedPcrMetricsOf
// rename for the two assay types.
package targeted
