package minimizer

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// RepartitionTable maps a (k-1)-mer minimizer code to the partition id
// it belongs to, spec.md §3's "repartition table" -- built once per run
// by its caller and shared read-only by every Partitioner/Bucketizer
// worker afterward. The CLI builds it with no sample, so every
// minimizer takes Partition's hash-and-fold path.
type RepartitionTable struct {
	numParts int
	assign   map[uint64]int
}

// NewRepartitionTable builds a table over numParts partitions, assigning
// each distinct minimizer seen in minimizers a partition id by hashing
// it with xxhash and folding into range -- the same fast
// non-cryptographic hash the teacher reaches for whenever a k-mer code
// needs spreading across buckets (util-hash.go's ihash64 family, here
// swapped for the pack's xxhash since the target is an external range
// split rather than an in-process map).
func NewRepartitionTable(minimizers []uint64, numParts int) *RepartitionTable {
	rt := &RepartitionTable{numParts: numParts, assign: make(map[uint64]int, len(minimizers))}
	for _, mz := range minimizers {
		if _, ok := rt.assign[mz]; ok {
			continue
		}
		rt.assign[mz] = rt.Partition(mz)
	}
	return rt
}

// Partition returns the partition id for minimizer code mz, falling
// back to a fresh hash-and-fold when mz was never part of the sample
// that built the table (spec.md §4.2's "unknown minimizer" case: the
// Partitioner must still place it somewhere deterministic).
func (rt *RepartitionTable) Partition(mz uint64) int {
	if rt.assign != nil {
		if p, ok := rt.assign[mz]; ok {
			return p
		}
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], mz)
	h := xxhash.Sum64(buf[:])
	return int(h % uint64(rt.numParts))
}

// Len reports how many distinct minimizers the table has assigned.
func (rt *RepartitionTable) Len() int { return len(rt.assign) }
