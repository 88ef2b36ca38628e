package fasta

import "math"

// GCFraction returns the fraction of G and C among the A, C, G and T bases
// of seq.  Other symbols, such as N, are ignored.  NaN is returned when seq
// holds no A, C, G or T.
func GCFraction(seq string) float64 {
	var gc, at int
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		case 'A', 'T', 'a', 't':
			at++
		}
	}
	if gc+at == 0 {
		return math.NaN()
	}
	return float64(gc) / float64(gc+at)
}
