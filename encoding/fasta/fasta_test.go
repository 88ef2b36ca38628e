package fasta_test

import (
	"bytes"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/targetqc/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	tassert "github.com/stretchr/testify/assert"
)

// seq1 carries a soft-masked stretch, which readers must upper-case.
const (
	testFasta = ">seq1\n" + "ACGTA\ncgtac\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACNN\n"
	testIndex = "seq1\t12\t6\t5\t6\n" + "seq2\t8\t44\t4\t5\n"
)

func newReaders(t *testing.T) map[string]fasta.Fasta {
	eager, err := fasta.New(strings.NewReader(testFasta))
	assert.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(testFasta), strings.NewReader(testIndex))
	assert.NoError(t, err)
	return map[string]fasta.Fasta{"eager": eager, "indexed": indexed}
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq        string
		start, end uint64
		want       string
		wantErr    bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 4, 8, "ACGT", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq2", 2, 7, "GTACN", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 4, "", true},
	}
	for name, fa := range newReaders(t) {
		for _, tt := range tests {
			got, err := fa.Get(tt.seq, tt.start, tt.end)
			if tt.wantErr {
				tassert.Error(t, err, "%s: %+v", name, tt)
				continue
			}
			tassert.NoError(t, err, "%s: %+v", name, tt)
			tassert.Equal(t, tt.want, got, "%s: %+v", name, tt)
		}
	}
}

func TestLenAndSeqNames(t *testing.T) {
	for name, fa := range newReaders(t) {
		n, err := fa.Len("seq1")
		tassert.NoError(t, err, name)
		tassert.Equal(t, uint64(12), n, name)
		_, err = fa.Len("seq0")
		tassert.Error(t, err, name)
		tassert.Equal(t, []string{"seq1", "seq2"}, fa.SeqNames(), name)

		lengths, err := fasta.Lengths(fa)
		tassert.NoError(t, err, name)
		tassert.Equal(t, map[string]uint64{"seq1": 12, "seq2": 8}, lengths, name)
	}
}

func TestNewErrors(t *testing.T) {
	_, err := fasta.New(strings.NewReader("ACGT\n>seq1\nACGT\n"))
	expect.HasSubstr(t, err.Error(), "malformed")
	_, err = fasta.New(strings.NewReader(">a\nAC\n>a\nGT\n"))
	expect.HasSubstr(t, err.Error(), "duplicate")
	_, err = fasta.NewIndexed(strings.NewReader(""), strings.NewReader("seq1\tbad\n"))
	expect.HasSubstr(t, err.Error(), "invalid index line")
}

func TestFaiToReferenceLengths(t *testing.T) {
	fai := "chr1\t250000000\t6\t60\t61\n" + "chr2\t199000000\t250000007\t60\t61\n"
	got, err := fasta.FaiToReferenceLengths(strings.NewReader(fai))
	assert.NoError(t, err)
	expect.EQ(t, got, map[string]uint64{"chr1": 250000000, "chr2": 199000000})
}

func TestGenerateIndex(t *testing.T) {
	generateIndex := func(fa string) string {
		var idx bytes.Buffer
		assert.NoError(t, fasta.GenerateIndex(&idx, strings.NewReader(fa)))
		return idx.String()
	}

	fa := ">T0\nGGTGAAATC\nCCTGAAATC\nAAAATTGCT\n" +
		">T1 second target\nGTCCCTCCCCAGACATGG\n"
	fai := generateIndex(fa)
	expect.EQ(t, fai, "T0\t27\t4\t9\t10\n"+"T1\t18\t52\t18\t19\n")

	indexed, err := fasta.NewIndexed(strings.NewReader(fa), strings.NewReader(fai))
	assert.NoError(t, err)
	seq, err := indexed.Get("T0", 7, 12)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TCCCT")

	// DOS line endings.
	expect.EQ(t, generateIndex(">E0\r\nGGGG\r\n>E1\r\nAAAAA\r\n"), "E0\t4\t5\t4\t6\n"+"E1\t5\t16\t5\t7\n")
	// No newline at the end.
	expect.EQ(t, generateIndex(">E0\nGGGG\n>E1\nAAAAA"), "E0\t4\t4\t4\t5\n"+"E1\t5\t13\t5\t5\n")

	var idx bytes.Buffer
	tassert.Error(t, fasta.GenerateIndex(&idx, strings.NewReader("")))
}

func TestLoad(t *testing.T) {
	ctx := vcontext.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "fasta")
	defer cleanup()

	path := filepath.Join(tmpdir, "ref.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(testFasta), 0644))

	// Without an index the reference is read into memory.
	ref, err := fasta.Load(ctx, path)
	assert.NoError(t, err)
	seq, err := ref.Get("seq1", 4, 8)
	assert.NoError(t, err)
	expect.EQ(t, seq, "ACGT")
	assert.NoError(t, ref.Close(ctx))

	var fai bytes.Buffer
	assert.NoError(t, fasta.GenerateIndex(&fai, strings.NewReader(testFasta)))
	assert.NoError(t, ioutil.WriteFile(path+".fai", fai.Bytes(), 0644))

	ref, err = fasta.Load(ctx, path)
	assert.NoError(t, err)
	seq, err = ref.Get("seq2", 0, 8)
	assert.NoError(t, err)
	expect.EQ(t, seq, "ACGTACNN")
	assert.NoError(t, ref.Close(ctx))

	_, err = fasta.Load(ctx, filepath.Join(tmpdir, "missing.fa"))
	tassert.Error(t, err)
}

func TestGCFraction(t *testing.T) {
	expect.EQ(t, fasta.GCFraction("GGCC"), 1.0)
	expect.EQ(t, fasta.GCFraction("GCAT"), 0.5)
	expect.EQ(t, fasta.GCFraction("gcNNat"), 0.5)
	expect.EQ(t, fasta.GCFraction("GCCN"), 1.0)
	expect.True(t, math.IsNaN(fasta.GCFraction("NNNN")))
	expect.True(t, math.IsNaN(fasta.GCFraction("")))
}

func TestWriteIndex(t *testing.T) {
	ctx := vcontext.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "fasta")
	defer cleanup()
	path := filepath.Join(tmpdir, "ref.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(testFasta), 0644))
	assert.NoError(t, fasta.WriteIndex(ctx, path))
	got, err := ioutil.ReadFile(path + ".fai")
	assert.NoError(t, err)
	expect.EQ(t, string(got), testIndex)
}
