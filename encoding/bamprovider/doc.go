// Package bamprovider streams sam.Records out of a BAM or SAM file.
//
// The Provider owns the file and hands out Iterators that yield records in
// file order.  A fake provider backed by an in-memory record slice is
// available for tests.
package bamprovider
