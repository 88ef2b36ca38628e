package metrics

import "sort"

// Histogram counts occurrences of integer values, such as per-base depths.
// The zero value is an empty histogram.
type Histogram struct {
	counts map[int]int64
}

// Increment adds n to the count for value v.
func (h *Histogram) Increment(v int, n int64) {
	if h.counts == nil {
		h.counts = make(map[int]int64)
	}
	h.counts[v] += n
}

// Get returns the count for v.
func (h *Histogram) Get(v int) int64 {
	return h.counts[v]
}

// Count returns the sum of all counts.
func (h *Histogram) Count() int64 {
	var n int64
	for _, c := range h.counts {
		n += c
	}
	return n
}

// Values returns the values with a recorded count, ascending.
func (h *Histogram) Values() []int {
	vals := make([]int, 0, len(h.counts))
	for v := range h.counts {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	return vals
}

// Median returns the first value, in ascending order, at which the
// cumulative count reaches half of the total.  An empty histogram has median
// 0.
func (h *Histogram) Median() float64 {
	half := float64(h.Count()) / 2
	var total int64
	for _, v := range h.Values() {
		total += h.counts[v]
		if float64(total) >= half {
			return float64(v)
		}
	}
	return 0
}

// Min returns the smallest value with a nonzero count, or 0 when empty.
func (h *Histogram) Min() int {
	for _, v := range h.Values() {
		if h.counts[v] > 0 {
			return v
		}
	}
	return 0
}

// Max returns the largest value with a nonzero count, or 0 when empty.
func (h *Histogram) Max() int {
	vals := h.Values()
	for i := len(vals) - 1; i >= 0; i-- {
		if h.counts[vals[i]] > 0 {
			return vals[i]
		}
	}
	return 0
}

// ValueAtRank returns the value at 0-based position rank of the ascending
// sequence in which each value is repeated count times.  It returns 0 when
// rank is out of range.
func (h *Histogram) ValueAtRank(rank int64) int {
	if rank < 0 {
		return 0
	}
	var total int64
	for _, v := range h.Values() {
		total += h.counts[v]
		if rank < total {
			return v
		}
	}
	return 0
}

// Capped returns a copy of h where every value above max is counted at max.
func (h *Histogram) Capped(max int) *Histogram {
	out := &Histogram{}
	for v, c := range h.counts {
		if v > max {
			v = max
		}
		out.Increment(v, c)
	}
	return out
}
