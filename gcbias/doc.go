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

// Package gcbias measures how read coverage depends on reference GC content.
//
// ComputeWindows slides a fixed-size window along every reference sequence
// and records the GC percentage of the window starting at each position.  A
// Collector then bins each aligned read by the GC of the window at its start
// and reports, per GC percentage, how many reads started there relative to
// how many windows have that GC.
package gcbias
