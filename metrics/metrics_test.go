package metrics_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/targetqc/internal/samtest"
	"github.com/grailbio/targetqc/metrics"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
)

func TestParseLevels(t *testing.T) {
	levels, err := metrics.ParseLevels("read_group, ALL_READS,SAMPLE,all_reads")
	assert.NoError(t, err)
	assert.Equal(t, []metrics.AccumulationLevel{metrics.AllReads, metrics.Sample, metrics.ReadGroup}, levels)
	assert.Equal(t, "READ_GROUP", metrics.ReadGroup.String())

	_, err = metrics.ParseLevels("")
	assert.True(t, errors.Is(errors.Invalid, err))
	_, err = metrics.ParseLevels("ALL_READS,PLATE")
	assert.True(t, errors.Is(errors.Invalid, err))
}

func newHeaderWithReadGroups() *sam.Header {
	return samtest.NewHeader(map[string]int{"chr1": 1000}, []string{"chr1"},
		samtest.NewReadGroup("rg1", "S1", "L1", "PU1"),
		samtest.NewReadGroup("rg2", "S1", "L2", ""),
		samtest.NewReadGroup("rg3", "S2", "L2", "PU3"),
		samtest.NewReadGroup("rg4", "", "", ""))
}

func TestResolverUnits(t *testing.T) {
	h := newHeaderWithReadGroups()
	r, err := metrics.NewResolver(h, []metrics.AccumulationLevel{metrics.ReadGroup, metrics.Library, metrics.Sample, metrics.AllReads})
	assert.NoError(t, err)
	assert.Equal(t, []metrics.Unit{
		{Level: metrics.AllReads},
		{Level: metrics.Sample, Sample: "S1"},
		{Level: metrics.Sample, Sample: "S2"},
		{Level: metrics.Library, Library: "L1"},
		{Level: metrics.Library, Library: "L2"},
		{Level: metrics.ReadGroup, ReadGroup: "PU1"},
		{Level: metrics.ReadGroup, ReadGroup: "rg2"},
		{Level: metrics.ReadGroup, ReadGroup: "PU3"},
		{Level: metrics.ReadGroup, ReadGroup: "rg4"},
	}, r.Units())
	assert.Equal(t, "SAMPLE:S1", r.Units()[1].String())
	assert.Equal(t, "ALL_READS", r.Units()[0].String())

	chr1 := h.Refs()[0]
	rec := samtest.NewRecord("a", chr1, 1, 0, -1, nil, samtest.Cigar("5M"))
	route := func(rg string) []int {
		r2 := *rec
		r2.AuxFields = nil
		if rg != "" {
			samtest.WithAux(&r2, "RG", rg)
		}
		idx, err := r.Route(&r2)
		assert.NoError(t, err)
		return idx
	}
	assert.Equal(t, []int{0, 1, 3, 5}, route("rg1"))
	assert.Equal(t, []int{0, 1, 4, 6}, route("rg2"))
	assert.Equal(t, []int{0, 2, 4, 7}, route("rg3"))
	assert.Equal(t, []int{0, 8}, route("rg4"))
	assert.Equal(t, []int{0}, route(""))

	samtest.WithAux(rec, "RG", "rgX")
	_, err = r.Route(rec)
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestResolverWithoutReadGroups(t *testing.T) {
	h := samtest.NewHeader(map[string]int{"chr1": 1000}, []string{"chr1"})
	r, err := metrics.NewResolver(h, []metrics.AccumulationLevel{metrics.AllReads})
	assert.NoError(t, err)
	assert.Equal(t, []metrics.Unit{{Level: metrics.AllReads}}, r.Units())
	rec := samtest.NewRecord("a", h.Refs()[0], 1, 0, -1, nil, samtest.Cigar("5M"))
	idx, err := r.Route(rec)
	assert.NoError(t, err)
	assert.Equal(t, []int{0}, idx)

	_, err = metrics.NewResolver(h, []metrics.AccumulationLevel{metrics.AllReads, metrics.Sample})
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestResolverWithoutAllReads(t *testing.T) {
	r, err := metrics.NewResolver(newHeaderWithReadGroups(), []metrics.AccumulationLevel{metrics.Sample})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(r.Units()))
	rec := samtest.NewRecord("a", nil, -1, sam.Unmapped, -1, nil, nil)
	idx, err := r.Route(rec)
	assert.NoError(t, err)
	assert.Empty(t, idx)
}

func TestHistogram(t *testing.T) {
	var h metrics.Histogram
	expect.EQ(t, h.Median(), 0.0)
	expect.EQ(t, h.Max(), 0)
	h.Increment(0, 3)
	h.Increment(5, 2)
	h.Increment(9, 4)
	expect.EQ(t, h.Count(), int64(9))
	expect.EQ(t, h.Values(), []int{0, 5, 9})
	// Half of 9 is 4.5; the cumulative count first reaches it at 5.
	expect.EQ(t, h.Median(), 5.0)
	expect.EQ(t, h.Min(), 0)
	expect.EQ(t, h.Max(), 9)

	expect.EQ(t, h.ValueAtRank(0), 0)
	expect.EQ(t, h.ValueAtRank(3), 5)
	expect.EQ(t, h.ValueAtRank(8), 9)
	expect.EQ(t, h.ValueAtRank(9), 0)

	c := h.Capped(5)
	expect.EQ(t, c.Values(), []int{0, 5})
	expect.EQ(t, c.Get(5), int64(6))
}

func TestDropout(t *testing.T) {
	expected := make([]float64, metrics.GCBins)
	observed := make([]float64, metrics.GCBins)
	expected[20], expected[50], expected[80] = 50, 25, 25
	observed[20], observed[50], observed[80] = 50, 0, 50
	at, gc := metrics.Dropout(expected, observed)
	// Bin 50 is expected at 25% and observed at 0%, and counts for both.
	assert.InEpsilon(t, 25.0, at, 1e-9)
	assert.InEpsilon(t, 25.0, gc, 1e-9)

	at, gc = metrics.Dropout(expected, make([]float64, metrics.GCBins))
	expect.EQ(t, at, 0.0)
	expect.EQ(t, gc, 0.0)
}

func TestFormatFloat(t *testing.T) {
	expect.EQ(t, metrics.FormatFloat(0.5), "0.5")
	expect.EQ(t, metrics.FormatFloat(2), "2")
	expect.EQ(t, metrics.FormatFloat(1.0/3), "0.333333")
	expect.EQ(t, metrics.FormatFloat(math.NaN()), "NaN")
	expect.EQ(t, metrics.FormatFloat(math.Inf(1)), "Inf")
	expect.EQ(t, metrics.FormatFloat(math.Inf(-1)), "-Inf")
	expect.EQ(t, metrics.FormatFloat(-0.0000001), "0")
}

func newTestFile(t *testing.T) *metrics.File {
	f := metrics.NewFile("bio-targetqc hs -bam x.bam")
	assert.NoError(t, f.AddMetrics("targetqc.Example", []string{"NAME", "COUNT", "PCT", "ABSENT"},
		[]metrics.Row{{"a", int64(3), 0.25, nil}, {"b", 4, math.NaN(), nil}}))
	var h metrics.Histogram
	h.Increment(1, 10)
	h.Increment(0, 2)
	f.AddHistogram("int", "coverage", "count", &h)
	return f
}

func TestFileWrite(t *testing.T) {
	f := newTestFile(t)
	var buf bytes.Buffer
	assert.NoError(t, f.Write(&buf))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "# bio-targetqc hs -bam x.bam", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "# run_id: "))
	assert.Equal(t, []string{
		"",
		"## METRICS CLASS\ttargetqc.Example",
		"NAME\tCOUNT\tPCT\tABSENT",
		"a\t3\t0.25\t",
		"b\t4\tNaN\t",
		"",
		"## HISTOGRAM\tint",
		"coverage\tcount",
		"0\t2",
		"1\t10",
		"",
	}, lines[2:])

	err := f.AddMetrics("bad", []string{"A"}, []metrics.Row{{1, 2}})
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestWriteFileCompressed(t *testing.T) {
	ctx := vcontext.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "metrics")
	defer cleanup()
	f := newTestFile(t)

	read := func(path string, wrap func(io.Reader) (io.Reader, error)) string {
		in, err := os.Open(path)
		assert.NoError(t, err)
		defer in.Close()
		r, err := wrap(in)
		assert.NoError(t, err)
		data, err := ioutil.ReadAll(r)
		assert.NoError(t, err)
		return string(data)
	}
	var want bytes.Buffer
	assert.NoError(t, f.Write(&want))

	plain := filepath.Join(tmpdir, "m.txt")
	assert.NoError(t, f.WriteFile(ctx, plain))
	assert.Equal(t, want.String(), read(plain, func(r io.Reader) (io.Reader, error) { return r, nil }))

	gz := filepath.Join(tmpdir, "m.txt.gz")
	assert.NoError(t, f.WriteFile(ctx, gz))
	assert.Equal(t, want.String(), read(gz, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }))

	lz := filepath.Join(tmpdir, "m.txt.lz4")
	assert.NoError(t, f.WriteFile(ctx, lz))
	assert.Equal(t, want.String(), read(lz, func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil }))
}

func TestWriteTSV(t *testing.T) {
	ctx := vcontext.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "metrics")
	defer cleanup()
	path := filepath.Join(tmpdir, "cov.tsv")
	err := metrics.WriteTSV(ctx, path, []string{"chrom", "pos"}, func(emit func(metrics.Row) error) error {
		if err := emit(metrics.Row{"chr1", 10}); err != nil {
			return err
		}
		return emit(metrics.Row{"chr1", 11})
	})
	assert.NoError(t, err)
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "chrom\tpos\nchr1\t10\nchr1\t11\n", string(data))
}
