package metrics

// GCBins is the number of GC-percentage bins, 0 through 100 inclusive.
const GCBins = 101

// Dropout computes Illumina-style AT and GC dropout from two per-GC-bin
// distributions: expected holds what was offered (target bases, reference
// windows) and observed what was seen (aligned bases, read starts).  For
// each bin where the expected share exceeds the observed share, the
// difference, in percentage points, is added to AT dropout when the bin is
// <= 50 and to GC dropout when it is >= 50.  Bin 50 counts toward both.
func Dropout(expected, observed []float64) (atDropout, gcDropout float64) {
	var totalExpected, totalObserved float64
	for i := range expected {
		totalExpected += expected[i]
		totalObserved += observed[i]
	}
	for i := range expected {
		expectedPct := expected[i] / totalExpected
		observedPct := observed[i] / totalObserved
		dropout := (expectedPct - observedPct) * 100
		if dropout > 0 {
			if i <= 50 {
				atDropout += dropout
			}
			if i >= 50 {
				gcDropout += dropout
			}
		}
	}
	return
}
