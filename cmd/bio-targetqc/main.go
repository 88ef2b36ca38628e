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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/targetqc/gcbias"
	"github.com/grailbio/targetqc/metrics"
	"github.com/grailbio/targetqc/targeted"
	"github.com/pkg/profile"
	"v.io/x/lib/cmdline"
)

func levelsString(levels []metrics.AccumulationLevel) string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}

func commandLine() string {
	return strings.Join(os.Args, " ")
}

// startProfile starts a CPU profile written under dir, if set.  It returns
// the function that stops it.
func startProfile(dir string) func() {
	if dir == "" {
		return func() {}
	}
	return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet).Stop
}

func newCmdTargeted(a assay) *cmdline.Command {
	short := "Compute hybrid-selection metrics"
	if a == pcrAssay {
		short = "Compute targeted PCR (amplicon) metrics"
	}
	cmd := &cmdline.Command{
		Name:     a.String(),
		Short:    short,
		ArgsName: "bampath",
	}
	opts := targeted.DefaultOpts
	flags := targetedFlags{
		probes:    cmd.Flags.String("probes", "", "Bait or amplicon intervals, as interval_list or BED. Required."),
		targets:   cmd.Flags.String("targets", "", "Target intervals, as interval_list or BED. Required."),
		reference: cmd.Flags.String("reference", "", "Optional FASTA reference, used for per-target GC content and dropout"),
		out:       cmd.Flags.String("out", "", "Output metrics path. Required."),
		levels:    cmd.Flags.String("levels", levelsString(opts.Levels), "Comma-separated accumulation levels: ALL_READS, SAMPLE, LIBRARY, READ_GROUP"),
	}
	cmd.Flags.IntVar(&opts.MinMappingQuality, "min-mapq", opts.MinMappingQuality, "Reads mapped below this quality are excluded")
	cmd.Flags.IntVar(&opts.MinBaseQuality, "min-base-qual", opts.MinBaseQuality, "Bases below this quality are excluded from coverage")
	cmd.Flags.IntVar(&opts.NearDistance, "near-distance", opts.NearDistance, "Bases within this distance of a probe count as near the probe")
	cmd.Flags.BoolVar(&opts.ClipOverlappingReads, "clip-overlapping-reads", opts.ClipOverlappingReads, "Count the overlap of a read pair once")
	cmd.Flags.IntVar(&opts.CoverageCap, "coverage-cap", opts.CoverageCap, "Depth histogram cap")
	cmd.Flags.StringVar(&opts.ProbeSetName, "probe-set-name", "", "Probe set name. Defaults to the probe file name")
	cmd.Flags.StringVar(&opts.PerTargetCoverage, "per-target-coverage", "", "If set, write per-target coverage to this path")
	cmd.Flags.StringVar(&opts.PerBaseCoverage, "per-base-coverage", "", "If set, write per-base coverage to this path")
	cmd.Flags.Int64Var(&opts.StopAfter, "stop-after", 0, "If positive, stop after this many records")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", 0, "Setup and summarization parallelism; 0 = runtime.NumCPU()")
	profileDir := cmd.Flags.String("cpuprofile-dir", "", "If set, write a CPU profile to this directory")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%v takes one bampath argument, but got %v", a, argv)
		}
		defer startProfile(*profileDir)()
		levels, err := metrics.ParseLevels(*flags.levels)
		if err != nil {
			return err
		}
		opts.Levels = levels
		return runTargeted(vcontext.Background(), a, argv[0], flags, opts)
	})
	return cmd
}

func newCmdGcBias() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "gcbias",
		Short:    "Compute GC bias metrics",
		ArgsName: "bampath",
	}
	opts := gcbias.DefaultOpts
	flags := gcBiasFlags{
		reference: cmd.Flags.String("reference", "", "FASTA reference. Required."),
		out:       cmd.Flags.String("out", "", "Output detail metrics path. Required."),
		summary:   cmd.Flags.String("summary", "", "Output summary metrics path. Defaults to the -out path + .summary"),
		levels:    cmd.Flags.String("levels", levelsString(opts.Levels), "Comma-separated accumulation levels: ALL_READS, SAMPLE, LIBRARY, READ_GROUP"),
	}
	cmd.Flags.IntVar(&opts.WindowSize, "window-size", opts.WindowSize, "Reference window length")
	cmd.Flags.BoolVar(&opts.Bisulfite, "bisulfite", opts.Bisulfite, "Treat bisulfite conversions as matches when counting errors")
	cmd.Flags.BoolVar(&opts.IgnoreDuplicates, "ignore-duplicates", opts.IgnoreDuplicates, "Also report metrics computed without duplicate reads")
	cmd.Flags.Int64Var(&opts.StopAfter, "stop-after", 0, "If positive, stop after this many records")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", 0, "Window computation parallelism; 0 = runtime.NumCPU()")
	profileDir := cmd.Flags.String("cpuprofile-dir", "", "If set, write a CPU profile to this directory")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("gcbias takes one bampath argument, but got %v", argv)
		}
		defer startProfile(*profileDir)()
		levels, err := metrics.ParseLevels(*flags.levels)
		if err != nil {
			return err
		}
		opts.Levels = levels
		return runGcBias(vcontext.Background(), argv[0], flags, opts)
	})
	return cmd
}

func newCmdIntervals() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "intervals",
		Short:    "Convert intervals to interval_list and report their territory",
		ArgsName: "path",
	}
	dict := cmd.Flags.String("dict", "", "Sequence dictionary source: a BAM, SAM, .dict or interval_list file. Required for BED input.")
	out := cmd.Flags.String("out", "", "If set, write the intervals to this path as interval_list")
	unique := cmd.Flags.Bool("unique", false, "Write the merged intervals instead of the input intervals")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("intervals takes one path argument, but got %v", argv)
		}
		return runIntervals(vcontext.Background(), env.Stdout, argv[0], *dict, *out, *unique)
	})
	return cmd
}

func main() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	root := &cmdline.Command{
		Name:     "bio-targetqc",
		Short:    "Quality-control metrics for targeted sequencing",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdTargeted(hsAssay),
			newCmdTargeted(pcrAssay),
			newCmdGcBias(),
			newCmdIntervals(),
		},
	}
	// cmdline.Main exits without running deferred calls, so flush logs first.
	err := cmdline.ParseAndRun(root, cmdline.EnvFromOS(), os.Args[1:])
	shutdown()
	os.Exit(cmdline.ExitCode(err, os.Stderr))
}
