package interval

import (
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Set is a sorted list of disjoint, non-abutting intervals.  It is immutable
// once built by Unique.
type Set struct {
	intervals []Interval
	territory int64
}

// Unique sorts ivs and merges intervals that overlap or abut.  The merged
// interval keeps the strand of its first member, and its name joins the
// distinct member names with "|".  When dict is non-nil, contigs are ordered
// as in the dictionary, and an interval on an unknown contig is an error;
// otherwise contigs sort by name.  ivs is not modified.
func Unique(dict *sam.Header, ivs []Interval) (Set, error) {
	var contigIdx map[string]int
	if dict != nil {
		contigIdx = make(map[string]int, len(dict.Refs()))
		for _, ref := range dict.Refs() {
			contigIdx[ref.Name()] = ref.ID()
		}
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	for _, iv := range sorted {
		if iv.Start < 1 || iv.End < iv.Start-1 {
			return Set{}, errors.E(errors.Invalid, "interval.Unique: malformed interval", iv.String())
		}
		if contigIdx != nil {
			if _, ok := contigIdx[iv.Contig]; !ok {
				return Set{}, errors.E(errors.Invalid, "interval.Unique: contig not in sequence dictionary:", iv.Contig)
			}
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Contig != b.Contig {
			if contigIdx != nil {
				return contigIdx[a.Contig] < contigIdx[b.Contig]
			}
			return a.Contig < b.Contig
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	var s Set
	for i := 0; i < len(sorted); {
		cur := sorted[i]
		names := []string{cur.Name}
		j := i + 1
		for ; j < len(sorted); j++ {
			next := sorted[j]
			if next.Contig != cur.Contig || next.Start > cur.End+1 {
				break
			}
			if next.End > cur.End {
				cur.End = next.End
			}
			names = append(names, next.Name)
		}
		cur.Name = mergeNames(names)
		s.intervals = append(s.intervals, cur)
		s.territory += int64(cur.Length())
		i = j
	}
	return s, nil
}

// Intervals returns the merged intervals in sorted order.  The caller must
// not modify the returned slice.
func (s Set) Intervals() []Interval {
	return s.intervals
}

// Len returns the number of merged intervals.
func (s Set) Len() int {
	return len(s.intervals)
}

// Territory returns the number of distinct bases covered by the set.
func (s Set) Territory() int64 {
	return s.territory
}
