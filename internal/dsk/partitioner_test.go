package dsk

import (
	"os"
	"testing"

	"github.com/GATB/gatb-core-sub000/bank"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

func newTestTable(t *testing.T, numParts int) *minimizer.RepartitionTable {
	t.Helper()
	return minimizer.NewRepartitionTable(nil, numParts)
}

func TestPartitionerRunProducesPartitionFiles(t *testing.T) {
	dir := t.TempDir()
	table := newTestTable(t, 4)
	p := &Partitioner{
		Config:     Config{KmerSize: 10, MinimizerSize: 5},
		Plan:       Plan{Passes: 1, Partitions: 4},
		Dir:        dir,
		Table:      table,
		Compressed: false,
	}
	b := bank.NewMemBankFromStrings("ACGTACGTACGTACGTACGT")

	stats, err := p.Run(b)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Snapshot().SuperKmersEmitted == 0 {
		t.Fatal("expected at least one super-k-mer emitted")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected partition files on disk")
	}
}

func TestPartitionerSkipsShortReads(t *testing.T) {
	dir := t.TempDir()
	table := newTestTable(t, 2)
	p := &Partitioner{
		Config: Config{KmerSize: 21, MinimizerSize: 7},
		Plan:   Plan{Passes: 1, Partitions: 2},
		Dir:    dir,
		Table:  table,
	}
	b := bank.NewMemBankFromStrings("ACGT")

	stats, err := p.Run(b)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Snapshot().SuperKmersEmitted != 0 {
		t.Fatal("expected no super-k-mers for a read shorter than k")
	}
}
