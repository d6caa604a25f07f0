package unitig

import (
	"testing"

	"github.com/GATB/gatb-core-sub000/bank"
)

func TestLoadParsesUnitigsAndKMTag(t *testing.T) {
	b := bank.NewMemBank([]bank.Sequence{
		{Comment: "0 LN:i:8 KC:i:40 KM:f:5.0", Bases: []byte("AACGTAAC")},
		{Comment: "1 LN:i:7 KC:i:21 KM:f:3.0", Bases: []byte("GGGTTCA")},
	})

	g, err := Load(b, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Seqs) != 2 {
		t.Fatalf("len(Seqs) = %d, want 2", len(g.Seqs))
	}
	if g.MeanAbundance[0] != 5.0 {
		t.Errorf("MeanAbundance[0] = %v, want 5.0", g.MeanAbundance[0])
	}
	if g.MeanAbundance[1] != 3.0 {
		t.Errorf("MeanAbundance[1] = %v, want 3.0", g.MeanAbundance[1])
	}
	for i := range g.Seqs {
		if g.Deleted[i] {
			t.Errorf("unitig %d marked deleted on load", i)
		}
	}
}

func TestLoadSingleKmerUnitigUsesPosBoth(t *testing.T) {
	b := bank.NewMemBank([]bank.Sequence{{Comment: "KM:f:1.0", Bases: []byte("ACG")}})

	g, err := Load(b, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.BeginCode(0) != g.EndCode(0) {
		t.Fatalf("single k-mer unitig should have equal begin/end code")
	}
	e, ok := g.entryFor(0, g.BeginCode(0))
	if !ok {
		t.Fatalf("no extremity entry for unitig 0")
	}
	if e.Pos() != PosBoth {
		t.Errorf("Pos() = %v, want PosBoth", e.Pos())
	}
}

func TestLoadRejectsShortUnitig(t *testing.T) {
	b := bank.NewMemBank([]bank.Sequence{{Bases: []byte("AC")}})
	if _, err := Load(b, 3); err == nil {
		t.Fatal("expected error loading a unitig shorter than k")
	}
}

func TestLoadMissingKMTagDefaultsToZero(t *testing.T) {
	b := bank.NewMemBank([]bank.Sequence{{Comment: "no tag here", Bases: []byte("ACGT")}})
	g, err := Load(b, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.MeanAbundance[0] != 0 {
		t.Errorf("MeanAbundance[0] = %v, want 0", g.MeanAbundance[0])
	}
}
