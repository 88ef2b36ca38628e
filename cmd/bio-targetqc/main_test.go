package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/targetqc/gcbias"
	"github.com/grailbio/targetqc/metrics"
	"github.com/grailbio/targetqc/targeted"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSAM = "@HD\tVN:1.5\tSO:coordinate\n" +
		"@SQ\tSN:chr1\tLN:200\n" +
		"r1\t0\tchr1\t5\t60\t10M\t*\t0\t0\tAAAAAAAAAA\tIIIIIIIIII\n" +
		"r2\t0\tchr1\t120\t60\t10M\t*\t0\t0\tGGGGGGGGGG\tIIIIIIIIII\n"
	testTargets = "@HD\tVN:1.5\tSO:coordinate\n" +
		"@SQ\tSN:chr1\tLN:200\n" +
		"chr1\t1\t50\t+\tt1\n"
)

func writeTestFiles(t *testing.T, dir string) (bamPath, targetsPath, refPath string) {
	bamPath = filepath.Join(dir, "reads.sam")
	targetsPath = filepath.Join(dir, "targets.interval_list")
	refPath = filepath.Join(dir, "ref.fa")
	require.NoError(t, ioutil.WriteFile(bamPath, []byte(testSAM), 0600))
	require.NoError(t, ioutil.WriteFile(targetsPath, []byte(testTargets), 0600))
	ref := ">chr1\n" + strings.Repeat("A", 100) + "\n" + strings.Repeat("G", 100) + "\n"
	require.NoError(t, ioutil.WriteFile(refPath, []byte(ref), 0600))
	return
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProbeSetName(t *testing.T) {
	expect.EQ(t, probeSetName("s3://bucket/baits.interval_list.gz"), "baits")
	expect.EQ(t, probeSetName("/tmp/amplicons.bed"), "amplicons")
	expect.EQ(t, probeSetName("targets"), "targets")
}

func TestRunTargeted(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "targetqc")
	defer cleanup()
	bamPath, targetsPath, refPath := writeTestFiles(t, dir)
	out := filepath.Join(dir, "out.hs_metrics")
	empty := ""
	flags := targetedFlags{
		probes:    &targetsPath,
		targets:   &targetsPath,
		reference: &refPath,
		out:       &out,
		levels:    &empty,
	}
	opts := targeted.DefaultOpts
	opts.PerTargetCoverage = filepath.Join(dir, "per_target.tsv")
	ctx := vcontext.Background()
	require.NoError(t, runTargeted(ctx, hsAssay, bamPath, flags, opts))

	got := readFile(t, out)
	expect.HasSubstr(t, got, "## METRICS CLASS\t"+targeted.HsMetricsClass+"\n")
	expect.HasSubstr(t, got, "\ntargets\t200\t50\t50\t1\t2\t2\t2\t1\t1\t")
	expect.HasSubstr(t, got, "## HISTOGRAM\tALL_READS\n")
	expect.HasSubstr(t, readFile(t, opts.PerTargetCoverage), "\nALL_READS\t\t\t\tchr1\t1\t50\t50\tt1\t0\t0.2\t1\t")

	out = filepath.Join(dir, "out.pcr_metrics")
	require.NoError(t, runTargeted(ctx, pcrAssay, bamPath, flags, targeted.DefaultOpts))
	expect.HasSubstr(t, readFile(t, out), "## METRICS CLASS\t"+targeted.TargetedPcrMetricsClass+"\n")

	out = ""
	err := runTargeted(ctx, hsAssay, bamPath, flags, targeted.DefaultOpts)
	assert.True(t, errors.Is(errors.Invalid, err))
}

const testRGSAM = "@HD\tVN:1.5\tSO:coordinate\n" +
	"@SQ\tSN:chr1\tLN:200\n" +
	"@RG\tID:rg1\tSM:s1\tLB:l1\tPU:pu1\n" +
	"r1\t0\tchr1\t5\t60\t10M\t*\t0\t0\tAAAAAAAAAA\tIIIIIIIIII\tRG:Z:rg1\n"

func TestRunTargetedPerReadGroup(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "targetqc")
	defer cleanup()
	_, targetsPath, _ := writeTestFiles(t, dir)
	bamPath := filepath.Join(dir, "rg.sam")
	require.NoError(t, ioutil.WriteFile(bamPath, []byte(testRGSAM), 0600))
	out := filepath.Join(dir, "out.hs_metrics")
	empty := ""
	flags := targetedFlags{
		probes:    &targetsPath,
		targets:   &targetsPath,
		reference: &empty,
		out:       &out,
		levels:    &empty,
	}
	opts := targeted.DefaultOpts
	opts.Levels = []metrics.AccumulationLevel{metrics.ReadGroup}
	opts.PerTargetCoverage = filepath.Join(dir, "per_target.tsv")
	opts.PerBaseCoverage = filepath.Join(dir, "per_base.tsv")
	ctx := vcontext.Background()
	require.NoError(t, runTargeted(ctx, hsAssay, bamPath, flags, opts))
	expect.HasSubstr(t, readFile(t, out), "\tpu1\n")
	expect.HasSubstr(t, readFile(t, opts.PerTargetCoverage), "\nREAD_GROUP\t\t\tpu1\tchr1\t1\t50\t50\tt1\t")
	expect.HasSubstr(t, readFile(t, opts.PerBaseCoverage), "\nREAD_GROUP\t\t\tpu1\tchr1\t5\tt1\t1\n")

	// A table that cannot be written leaves no metrics file behind.
	out = filepath.Join(dir, "failed.hs_metrics")
	opts.PerTargetCoverage = dir
	assert.Error(t, runTargeted(ctx, hsAssay, bamPath, flags, opts))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "%v", err)
}

func TestRunGcBias(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "targetqc")
	defer cleanup()
	bamPath, _, refPath := writeTestFiles(t, dir)
	out := filepath.Join(dir, "gc.txt.gz")
	empty := ""
	flags := gcBiasFlags{reference: &refPath, out: &out, summary: &empty, levels: &empty}
	require.NoError(t, runGcBias(vcontext.Background(), bamPath, flags, gcbias.DefaultOpts))

	summary := readFile(t, out+".summary")
	expect.HasSubstr(t, summary, "## METRICS CLASS\t"+gcbias.SummaryMetricsClass+"\n")
	expect.HasSubstr(t, summary, "\nALL_READS\tALL\t100\t2\t2\t")

	// The detail file is gzipped.
	data, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2])
}

func TestRunIntervals(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "targetqc")
	defer cleanup()
	bamPath, _, _ := writeTestFiles(t, dir)
	bedPath := filepath.Join(dir, "targets.bed")
	require.NoError(t, ioutil.WriteFile(bedPath, []byte("chr1\t0\t50\tt1\nchr1\t40\t60\tt2\n"), 0600))
	out := filepath.Join(dir, "targets.interval_list")

	var buf bytes.Buffer
	ctx := vcontext.Background()
	require.NoError(t, runIntervals(ctx, &buf, bedPath, bamPath, out, true))
	assert.Equal(t, "intervals\t2\nunique_intervals\t1\nterritory\t60\ngenome_size\t200\n", buf.String())
	got := readFile(t, out)
	expect.HasSubstr(t, got, "@SQ\tSN:chr1\tLN:200")
	expect.HasSubstr(t, got, "chr1\t1\t60\t+\tt1|t2\n")

	// The written file serves as a dictionary.
	buf.Reset()
	require.NoError(t, runIntervals(ctx, &buf, bedPath, out, "", false))
	expect.HasSubstr(t, buf.String(), "territory\t60\n")

	err := runIntervals(ctx, &buf, bedPath, "", "", false)
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestLevelsString(t *testing.T) {
	expect.EQ(t, levelsString([]metrics.AccumulationLevel{metrics.AllReads, metrics.Sample}), "ALL_READS,SAMPLE")
}
