package bank

import (
	"io"
	"testing"
)

func TestMemBankIteratesAndEstimates(t *testing.T) {
	b := NewMemBankFromStrings("AGGCGCC", "ACGT")
	n, total := b.EstimateNbItemsAndTotalLength()
	if n != 2 || total != 11 {
		t.Fatalf("estimate = (%d, %d), want (2, 11)", n, total)
	}

	var got []string
	for {
		s, err := b.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, string(s.Bases))
	}
	if len(got) != 2 || got[0] != "AGGCGCC" || got[1] != "ACGT" {
		t.Fatalf("unexpected sequences: %v", got)
	}
}

func TestMemBankReset(t *testing.T) {
	b := NewMemBankFromStrings("ACGT")
	if _, err := b.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Next(); err != io.EOF {
		t.Fatal("expected EOF after exhausting bank")
	}
	b.Reset()
	if _, err := b.Next(); err != nil {
		t.Fatal("expected a record after Reset")
	}
}
