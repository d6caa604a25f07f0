package bcalm2

import (
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

// kmerMinimizers returns the minimizer of a canonical k-mer's left and
// right (k-1)-mer, the same per-end computation the Partitioner does
// (internal/dsk/partitioner.go's kmerMinimizers) but starting from an
// already-decoded canonical code rather than raw read bases -- the
// Bucketizer and Compactor only ever see solid k-mers out of the
// SolidStore, never the original reads.
func kmerMinimizers(code uint64, k, m int, order minimizer.Order, freq minimizer.FrequencyTable) (left, right uint64, err error) {
	bases := kmercode.KmerCode{Code: code, K: k}.Bytes()
	leftBases := bases[:len(bases)-1]
	rightBases := bases[1:]

	lsk, err := minimizer.NewSketch(leftBases, len(leftBases), m, order, freq)
	if err != nil {
		return 0, 0, err
	}
	left, _ = lsk.Next()

	rsk, err := minimizer.NewSketch(rightBases, len(rightBases), m, order, freq)
	if err != nil {
		return 0, 0, err
	}
	right, _ = rsk.Next()
	return left, right, nil
}
