package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFasta(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fa")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFileBankReadsMultiLineRecords(t *testing.T) {
	path := writeTempFasta(t, ">seq1 first\nACGT\nACGT\n>seq2\nTTTT\n")

	fb, err := openFileBank(path)
	if err != nil {
		t.Fatalf("openFileBank: %v", err)
	}
	defer fb.Close()

	n, total := fb.EstimateNbItemsAndTotalLength()
	if n != 2 {
		t.Errorf("nItems = %d, want 2", n)
	}
	if total != 12 {
		t.Errorf("nBases = %d, want 12", total)
	}

	seq, err := fb.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(seq.Bases) != "ACGTACGT" {
		t.Errorf("Bases = %q, want %q", seq.Bases, "ACGTACGT")
	}

	seq2, err := fb.Next()
	if err != nil {
		t.Fatalf("Next (2nd): %v", err)
	}
	if string(seq2.Bases) != "TTTT" {
		t.Errorf("Bases = %q, want %q", seq2.Bases, "TTTT")
	}

	if _, err := fb.Next(); err != io.EOF {
		t.Errorf("Next (3rd) err = %v, want io.EOF", err)
	}
}

func TestFileBankEstimateMatchesSingleRecord(t *testing.T) {
	path := writeTempFasta(t, ">only\nACGTACGTAC\n")

	fb, err := openFileBank(path)
	if err != nil {
		t.Fatalf("openFileBank: %v", err)
	}
	defer fb.Close()

	n, total := fb.EstimateNbItemsAndTotalLength()
	if n != 1 {
		t.Errorf("nItems = %d, want 1", n)
	}
	if total != 10 {
		t.Errorf("nBases = %d, want 10", total)
	}

	seq, err := fb.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(seq.Bases) != "ACGTACGTAC" {
		t.Errorf("Bases = %q, want %q", seq.Bases, "ACGTACGTAC")
	}
}
