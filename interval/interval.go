package interval

import (
	"fmt"
	"strings"
)

// Interval is a closed, 1-based genomic interval.  An interval with End ==
// Start-1 is empty.
type Interval struct {
	Contig string
	Start  int
	End    int
	// Negative is set for intervals on the reverse strand.  Strand does not
	// affect overlap or merging.
	Negative bool
	// Name is optional; "" means unnamed.
	Name string
}

// Length returns the number of bases in the interval.
func (iv Interval) Length() int {
	return iv.End - iv.Start + 1
}

// Intersects returns true if iv and o share at least one base.
func (iv Interval) Intersects(o Interval) bool {
	return iv.Contig == o.Contig && iv.Start <= o.End && o.Start <= iv.End
}

// Abuts returns true if iv and o are adjacent without overlapping.
func (iv Interval) Abuts(o Interval) bool {
	return iv.Contig == o.Contig && (iv.End+1 == o.Start || o.End+1 == iv.Start)
}

// Contains returns true if pos (1-based) lies inside iv.
func (iv Interval) Contains(pos int) bool {
	return pos >= iv.Start && pos <= iv.End
}

// String renders iv as "contig:start-end", the form samtools accepts.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Contig, iv.Start, iv.End)
}

func (iv Interval) strand() byte {
	if iv.Negative {
		return '-'
	}
	return '+'
}

// mergeNames joins the distinct non-empty names in the order they appear.
func mergeNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(names))
	var kept []string
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		kept = append(kept, n)
	}
	return strings.Join(kept, "|")
}
