// Package metrics holds the pieces shared by the coverage collectors:
// accumulation levels and the units they produce, depth histograms, GC
// dropout, and the Picard-style metrics file writer.
package metrics
