package interval

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func newTestHeader(t *testing.T) *sam.Header {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 500, nil, nil)
	assert.NoError(t, err)
	h, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	assert.NoError(t, err)
	return h
}

func TestIntervalBasics(t *testing.T) {
	iv := Interval{Contig: "chr1", Start: 100, End: 200}
	expect.EQ(t, iv.Length(), 101)
	expect.EQ(t, iv.String(), "chr1:100-200")
	expect.True(t, iv.Contains(100))
	expect.True(t, iv.Contains(200))
	expect.False(t, iv.Contains(201))
	expect.True(t, iv.Intersects(Interval{Contig: "chr1", Start: 200, End: 300}))
	expect.False(t, iv.Intersects(Interval{Contig: "chr1", Start: 201, End: 300}))
	expect.False(t, iv.Intersects(Interval{Contig: "chr2", Start: 100, End: 200}))
	expect.True(t, iv.Abuts(Interval{Contig: "chr1", Start: 201, End: 300}))
	expect.True(t, iv.Abuts(Interval{Contig: "chr1", Start: 1, End: 99}))
	expect.False(t, iv.Abuts(Interval{Contig: "chr1", Start: 200, End: 300}))

	empty := Interval{Contig: "chr1", Start: 10, End: 9}
	expect.EQ(t, empty.Length(), 0)
}

func TestMergeNames(t *testing.T) {
	expect.EQ(t, mergeNames(nil), "")
	expect.EQ(t, mergeNames([]string{"a", "", "b", "a"}), "a|b")
	expect.EQ(t, mergeNames([]string{"", ""}), "")
}

func TestUnique(t *testing.T) {
	h := newTestHeader(t)
	s, err := Unique(h, []Interval{
		{Contig: "chr2", Start: 10, End: 20, Name: "d"},
		{Contig: "chr1", Start: 150, End: 250, Name: "b"},
		{Contig: "chr1", Start: 100, End: 200, Name: "a"},
		{Contig: "chr1", Start: 251, End: 260, Name: "c"},
		{Contig: "chr1", Start: 300, End: 310},
	})
	assert.NoError(t, err)
	expect.EQ(t, s.Intervals(), []Interval{
		{Contig: "chr1", Start: 100, End: 260, Name: "a|b|c"},
		{Contig: "chr1", Start: 300, End: 310},
		{Contig: "chr2", Start: 10, End: 20, Name: "d"},
	})
	expect.EQ(t, s.Len(), 3)
	expect.EQ(t, s.Territory(), int64(161+11+11))
}

func TestUniqueTerritory(t *testing.T) {
	s, err := Unique(newTestHeader(t), []Interval{
		{Contig: "chr1", Start: 100, End: 200},
		{Contig: "chr1", Start: 150, End: 250},
	})
	assert.NoError(t, err)
	expect.EQ(t, s.Territory(), int64(151))
}

func TestUniqueOrdersByDictionary(t *testing.T) {
	chrB, _ := sam.NewReference("b", "", "", 100, nil, nil)
	chrA, _ := sam.NewReference("a", "", "", 100, nil, nil)
	h, err := sam.NewHeader(nil, []*sam.Reference{chrB, chrA})
	assert.NoError(t, err)
	s, err := Unique(h, []Interval{{Contig: "a", Start: 1, End: 2}, {Contig: "b", Start: 1, End: 2}})
	assert.NoError(t, err)
	expect.EQ(t, s.Intervals()[0].Contig, "b")

	s, err = Unique(nil, []Interval{{Contig: "b", Start: 1, End: 2}, {Contig: "a", Start: 1, End: 2}})
	assert.NoError(t, err)
	expect.EQ(t, s.Intervals()[0].Contig, "a")
}

func TestUniqueErrors(t *testing.T) {
	h := newTestHeader(t)
	_, err := Unique(h, []Interval{{Contig: "chrX", Start: 1, End: 10}})
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Unique(h, []Interval{{Contig: "chr1", Start: 10, End: 5}})
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestReadBED(t *testing.T) {
	bed := "track name=foo\n" +
		"# comment\n" +
		"chr1\t99\t200\ttargetA\t0\t-\n" +
		"\n" +
		"chr2 0 10\n"
	ivs, err := ReadBED(strings.NewReader(bed))
	assert.NoError(t, err)
	expect.EQ(t, ivs, []Interval{
		{Contig: "chr1", Start: 100, End: 200, Name: "targetA", Negative: true},
		{Contig: "chr2", Start: 1, End: 10},
	})

	_, err = ReadBED(strings.NewReader("chr1\t10\n"))
	expect.HasSubstr(t, err.Error(), "fewer tokens")
	_, err = ReadBED(strings.NewReader("chr1\t10\t5\n"))
	expect.HasSubstr(t, err.Error(), "invalid coordinate pair")
	_, err = ReadBED(strings.NewReader("chr1\t-1\t5\n"))
	expect.HasSubstr(t, err.Error(), "negative start")
}

const testIntervalList = "@HD\tVN:1.5\tSO:coordinate\n" +
	"@SQ\tSN:chr1\tLN:1000\n" +
	"@SQ\tSN:chr2\tLN:500\n" +
	"chr1\t100\t200\t+\tt1\n" +
	"chr1\t150\t250\t-\t.\n" +
	"chr2\t1\t500\t+\tt3\n"

func TestReadIntervalList(t *testing.T) {
	l, err := ReadIntervalList(strings.NewReader(testIntervalList))
	assert.NoError(t, err)
	expect.EQ(t, len(l.Header.Refs()), 2)
	expect.EQ(t, l.GenomeSize(), int64(1500))
	expect.EQ(t, l.Intervals, []Interval{
		{Contig: "chr1", Start: 100, End: 200, Name: "t1"},
		{Contig: "chr1", Start: 150, End: 250, Negative: true},
		{Contig: "chr2", Start: 1, End: 500, Name: "t3"},
	})
	s, err := l.Uniqued()
	assert.NoError(t, err)
	expect.EQ(t, s.Territory(), int64(151+500))
}

func TestReadIntervalListErrors(t *testing.T) {
	_, err := ReadIntervalList(strings.NewReader("chr1\t1\t10\t+\tx\n"))
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = ReadIntervalList(strings.NewReader("@SQ\tSN:chr1\tLN:100\nchr3\t1\t10\t+\tx\n"))
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = ReadIntervalList(strings.NewReader("@SQ\tSN:chr1\tLN:100\nchr1\t1\t101\t+\tx\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestWriteIntervalListRoundTrip(t *testing.T) {
	l, err := ReadIntervalList(strings.NewReader(testIntervalList))
	assert.NoError(t, err)
	var buf bytes.Buffer
	assert.NoError(t, WriteIntervalList(&buf, l))
	expect.HasSubstr(t, buf.String(), "chr1\t150\t250\t-\t.\n")

	l2, err := ReadIntervalList(&buf)
	assert.NoError(t, err)
	expect.EQ(t, l2.Intervals, l.Intervals)
	expect.NoError(t, CheckDictionaries("a", l.Header, "b", l2.Header))
}

func TestCheckDictionaries(t *testing.T) {
	h := newTestHeader(t)
	expect.NoError(t, CheckDictionaries("reads", h, "targets", h))

	chr1, _ := sam.NewReference("chr1", "", "", 999, nil, nil)
	other, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	assert.NoError(t, err)
	err = CheckDictionaries("reads", h, "targets", other)
	expect.True(t, errors.Is(errors.Invalid, err))

	expect.NoError(t, CheckContigLengths(h, "ref", map[string]uint64{"chr1": 1000, "chr2": 500, "chrM": 16569}))
	expect.True(t, errors.Is(errors.Invalid, CheckContigLengths(h, "ref", map[string]uint64{"chr1": 1000})))
	expect.True(t, errors.Is(errors.Invalid, CheckContigLengths(h, "ref", map[string]uint64{"chr1": 1000, "chr2": 501})))
}
