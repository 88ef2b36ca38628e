/*Package interval loads and indexes the genomic intervals that targeted
  sequencing metrics are computed over.

  Intervals use the Picard interval_list convention: 1-based, closed [start,
  end] coordinates on a contig named in a SAM-style sequence dictionary.  BED
  input (0-based, half-open) is converted on load.  A Set is the merged union
  of a list of intervals; its territory is the number of distinct bases it
  covers.  An OverlapIndex answers "which set members lie within padding
  distance of this range" queries.
*/
package interval
