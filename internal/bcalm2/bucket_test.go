package bcalm2

import (
	"testing"

	"github.com/GATB/gatb-core-sub000/internal/dsk"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

func mustEncode(t *testing.T, seq string) uint64 {
	t.Helper()
	code, err := kmercode.Encode([]byte(seq))
	if err != nil {
		t.Fatalf("Encode(%q): %v", seq, err)
	}
	return code
}

func TestBucketizerRunRoutesEveryKmer(t *testing.T) {
	k, m := 5, 3
	c1 := mustEncode(t, "ACGTA")
	c2 := mustEncode(t, "TTTTT")

	store := &dsk.SolidStore{
		K: k,
		Partitions: [][]dsk.SolidKmer{
			{
				{Code: c1, Abundance: 3},
				{Code: c2, Abundance: 7},
			},
		},
	}

	table := minimizer.NewRepartitionTable(nil, 1)
	bz := &Bucketizer{K: k, M: m, Order: minimizer.LexOrder, Table: table, Dir: t.TempDir()}

	buckets, err := bz.Run(store)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var total int
	for _, entries := range buckets {
		total += len(entries)
	}
	if total != 2 {
		t.Fatalf("routed %d k-mers, want 2", total)
	}
}

func TestBucketizerEmptyStoreProducesNoBuckets(t *testing.T) {
	store := &dsk.SolidStore{K: 5, Partitions: [][]dsk.SolidKmer{{}}}
	table := minimizer.NewRepartitionTable(nil, 1)
	bz := &Bucketizer{K: 5, M: 3, Order: minimizer.LexOrder, Table: table, Dir: t.TempDir()}

	buckets, err := bz.Run(store)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(buckets) != 0 {
		t.Fatalf("expected no buckets, got %d", len(buckets))
	}
}
