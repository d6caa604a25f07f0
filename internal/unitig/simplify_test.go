package unitig

import (
	"strings"
	"testing"

	"github.com/GATB/gatb-core-sub000/bank"
)

func loadGraphWithKM(t *testing.T, k int, entries ...[2]string) *UnitigGraph {
	t.Helper()
	seqs := make([]bank.Sequence, len(entries))
	for i, e := range entries {
		seqs[i] = bank.Sequence{Comment: "KM:f:" + e[1], Bases: []byte(e[0])}
	}
	g, err := Load(bank.NewMemBank(seqs), k)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

// A short dead-end unitig attached to one end of a long trunk is a
// classic topological tip and must be removed regardless of coverage;
// the trunk is long enough to be exempt from both tip criteria.
func TestRemoveTipsDeletesShortDeadEnd(t *testing.T) {
	trunk := strings.Repeat("ACG", 10) + "TAA" // 33 bases, 31 k-mers at k=3
	tip := "TAAGG"                             // 5 bases, 3 k-mers

	g := loadGraphWithKM(t, 3, [2]string{trunk, "5.0"}, [2]string{tip, "5.0"})
	s := &Simplifier{Graph: g, K: 3, NbCores: 1}

	n := s.removeTips(cutoffFor(len(g.Seqs)))
	if n != 1 {
		t.Fatalf("removeTips removed %d, want 1", n)
	}
	if g.Deleted[0] {
		t.Error("trunk (id 0) should not be deleted")
	}
	if !g.Deleted[1] {
		t.Error("tip (id 1) should be deleted")
	}
}

// Two equal-length paths connecting the same pair of branch points,
// one far better covered than the other: the low-coverage path is the
// bulge and must be removed.
func TestRemoveBulgesDeletesLowCoveragePath(t *testing.T) {
	strong := "TAAGGGCTT" // 9 bases, begin TAA, end CTT
	weak := "TAACCCCTT"   // 9 bases, begin TAA, end CTT

	g := loadGraphWithKM(t, 3, [2]string{strong, "20.0"}, [2]string{weak, "2.0"})
	if g.BeginCode(0) != g.BeginCode(1) || g.EndCode(0) != g.EndCode(1) {
		t.Fatal("test fixture needs both legs sharing begin and end extremities")
	}

	s := &Simplifier{Graph: g, K: 3, NbCores: 1}
	n := s.removeBulges(cutoffFor(len(g.Seqs)))
	if n != 1 {
		t.Fatalf("removeBulges removed %d, want 1", n)
	}
	if g.Deleted[0] {
		t.Error("high-coverage leg (id 0) should not be deleted")
	}
	if !g.Deleted[1] {
		t.Error("low-coverage leg (id 1) should be deleted")
	}
}

// A short low-coverage unitig directly connecting two branch points,
// each of whose other arm is far better covered, is an erroneous
// connection and must be removed.
func TestRemoveECsDeletesLowCoverageShortcut(t *testing.T) {
	ec := "TAAGCTT"      // 7 bases: begin TAA, end CTT
	mainA := "TAAGGCCGG" // shares begin TAA with ec
	mainB := "AACGGCTT"  // shares end CTT with ec

	g := loadGraphWithKM(t, 3,
		[2]string{ec, "2.0"},
		[2]string{mainA, "20.0"},
		[2]string{mainB, "20.0"},
	)
	if !g.IsBranching(g.BeginCode(0)) || !g.IsBranching(g.EndCode(0)) {
		t.Fatal("test fixture needs both ends of the ec candidate branching")
	}

	s := &Simplifier{Graph: g, K: 3, NbCores: 1}
	n := s.removeECs(cutoffFor(len(g.Seqs)))
	if n != 1 {
		t.Fatalf("removeECs removed %d, want 1", n)
	}
	if !g.Deleted[0] {
		t.Error("ec candidate (id 0) should be deleted")
	}
	if g.Deleted[1] || g.Deleted[2] {
		t.Error("the two well-covered arms should not be deleted")
	}
}

func TestCutoffForScalesWithGraphSize(t *testing.T) {
	if cutoffFor(0) != 1 {
		t.Errorf("cutoffFor(0) = %d, want 1", cutoffFor(0))
	}
	if cutoffFor(50000) != 1 {
		t.Errorf("cutoffFor(50000) = %d, want 1", cutoffFor(50000))
	}
	if cutoffFor(250000) != 2 {
		t.Errorf("cutoffFor(250000) = %d, want 2", cutoffFor(250000))
	}
}

func TestSimplifierRunRemovesTipAndStops(t *testing.T) {
	trunk := strings.Repeat("ACG", 10) + "TAA"
	tip := "TAAGG"
	g := loadGraphWithKM(t, 3, [2]string{trunk, "5.0"}, [2]string{tip, "5.0"})

	s := &Simplifier{Graph: g, K: 3, NbCores: 1}
	report := s.Run()
	if report.TipsRemoved != 1 {
		t.Errorf("TipsRemoved = %d, want 1", report.TipsRemoved)
	}
	if !g.Deleted[1] {
		t.Error("tip should be deleted after Run")
	}
}

func TestNodesDeleterIsIdempotent(t *testing.T) {
	g := loadGraphWithKM(t, 3, [2]string{"ACGTACG", "1.0"})
	d := &NodesDeleter{graph: g}
	first := d.Flush([]uint32{0, 0})
	second := d.Flush([]uint32{0})
	if first != 1 {
		t.Errorf("first Flush = %d, want 1", first)
	}
	if second != 0 {
		t.Errorf("second Flush = %d, want 0", second)
	}
}
