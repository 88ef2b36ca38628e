package interval

import (
	"sort"

	storeinterval "github.com/biogo/store/interval"
	"github.com/grailbio/base/errors"
)

// treeEntry is an interval as stored in the per-contig tree.  Its range is
// 0-based, half-open and padded.
type treeEntry struct {
	start, end int
	uid        uintptr
	iv         Interval
}

func (e treeEntry) Overlap(b storeinterval.IntRange) bool {
	// Half-open interval indexing.
	return e.end > b.Start && e.start < b.End
}

func (e treeEntry) ID() uintptr { return e.uid }

func (e treeEntry) Range() storeinterval.IntRange {
	return storeinterval.IntRange{Start: e.start, End: e.end}
}

// query is a 0-based half-open search range.
type query struct{ start, end int }

func (q query) Overlap(b storeinterval.IntRange) bool {
	return q.end > b.Start && q.start < b.End
}

// OverlapIndex answers which intervals of a Set lie within a padding
// distance of a query.  It is read-only once built and safe for concurrent
// queries.
type OverlapIndex struct {
	trees map[string]*storeinterval.IntTree
}

// NewOverlapIndex indexes the intervals of s, each widened by pad bases on
// both sides.
func NewOverlapIndex(s Set, pad int) (*OverlapIndex, error) {
	return NewAsymmetricOverlapIndex(s, pad, pad)
}

// NewAsymmetricOverlapIndex indexes the intervals of s, each widened by
// leftPad bases before its start and rightPad bases after its end.
func NewAsymmetricOverlapIndex(s Set, leftPad, rightPad int) (*OverlapIndex, error) {
	if leftPad < 0 || rightPad < 0 {
		return nil, errors.E(errors.Invalid, "interval.NewOverlapIndex: negative padding")
	}
	idx := &OverlapIndex{trees: make(map[string]*storeinterval.IntTree)}
	for i, iv := range s.Intervals() {
		tree, ok := idx.trees[iv.Contig]
		if !ok {
			tree = &storeinterval.IntTree{}
			idx.trees[iv.Contig] = tree
		}
		e := treeEntry{
			start: iv.Start - 1 - leftPad,
			end:   iv.End + rightPad,
			uid:   uintptr(i),
			iv:    iv,
		}
		if e.end <= e.start {
			// Nothing can overlap an empty range.
			continue
		}
		if err := tree.Insert(e, true); err != nil {
			return nil, errors.E(err, "interval.NewOverlapIndex", iv.String())
		}
	}
	for _, tree := range idx.trees {
		tree.AdjustRanges()
	}
	return idx, nil
}

// Query returns the indexed intervals whose padded span intersects the
// 1-based closed range [start, end] on contig, sorted by start.  An unknown
// contig or an empty range returns nil.
func (idx *OverlapIndex) Query(contig string, start, end int) []Interval {
	entries := idx.lookup(contig, start, end)
	if len(entries) == 0 {
		return nil
	}
	out := make([]Interval, len(entries))
	for i, e := range entries {
		out[i] = e.iv
	}
	return out
}

// QueryIndexes is Query, but returns positions in the indexed Set's
// Intervals() rather than the intervals themselves.
func (idx *OverlapIndex) QueryIndexes(contig string, start, end int) []int {
	entries := idx.lookup(contig, start, end)
	if len(entries) == 0 {
		return nil
	}
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = int(e.uid)
	}
	return out
}

func (idx *OverlapIndex) lookup(contig string, start, end int) []treeEntry {
	tree, ok := idx.trees[contig]
	if !ok || end < start {
		return nil
	}
	hits := tree.Get(query{start: start - 1, end: end})
	if len(hits) == 0 {
		return nil
	}
	entries := make([]treeEntry, len(hits))
	for i, h := range hits {
		entries[i] = h.(treeEntry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].uid < entries[j].uid })
	return entries
}
