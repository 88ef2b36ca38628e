// Package samtest builds headers and records for tests.
package samtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/grailbio/hts/sam"
)

// NewHeader returns a header with one reference per name/length pair and the
// given read groups.
func NewHeader(refs map[string]int, order []string, rgs ...*sam.ReadGroup) *sam.Header {
	var list []*sam.Reference
	for _, name := range order {
		ref, err := sam.NewReference(name, "", "", refs[name], nil, nil)
		if err != nil {
			panic(err)
		}
		list = append(list, ref)
	}
	h, err := sam.NewHeader(nil, list)
	if err != nil {
		panic(err)
	}
	for _, rg := range rgs {
		if err := h.AddReadGroup(rg); err != nil {
			panic(err)
		}
	}
	return h
}

// NewReadGroup returns a read group with the given sample, library and
// platform unit.  Empty values are left unset.
func NewReadGroup(id, sample, library, unit string) *sam.ReadGroup {
	rg, err := sam.NewReadGroup(id, "", "", library, "", "", unit, sample, "", "", time.Time{}, 0)
	if err != nil {
		panic(err)
	}
	return rg
}

// NewRecord creates a record with the given alignment and no bases.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, matePos int, mateRef *sam.Reference, cigar sam.Cigar) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.MatePos = matePos
	r.MateRef = mateRef
	r.Flags = flags
	r.Cigar = cigar
	r.MapQ = 60
	return r
}

// NewRecordSeq is NewRecord with bases and Phred qualities.  qual holds raw
// Phred values, not ASCII-33.
func NewRecordSeq(name string, ref *sam.Reference, pos int, flags sam.Flags, matePos int, mateRef *sam.Reference,
	cigar sam.Cigar, seq string, qual []byte) *sam.Record {
	if len(seq) != len(qual) {
		panic("seq and qual must be equal length")
	}
	r := NewRecord(name, ref, pos, flags, matePos, mateRef, cigar)
	r.Seq = sam.NewSeq([]byte(seq))
	r.Qual = append([]byte(nil), qual...)
	return r
}

// Quals returns n copies of q.
func Quals(n int, q byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = q
	}
	return b
}

// Bases returns a sequence of n bases repeating pattern.
func Bases(n int, pattern string) string {
	return strings.Repeat(pattern, n/len(pattern)+1)[:n]
}

// WithAux appends a tag to r and returns r.
func WithAux(r *sam.Record, tag string, val interface{}) *sam.Record {
	aux, err := sam.NewAux(sam.NewTag(tag), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", tag, val, err))
	}
	r.AuxFields = append(r.AuxFields, aux)
	return r
}

// Cigar parses a CIGAR string such as "10M2I5M".
func Cigar(s string) sam.Cigar {
	c, err := sam.ParseCigar([]byte(s))
	if err != nil {
		panic(err)
	}
	return c
}
