package bcalm2

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestWriteReadFragmentRoundtrip(t *testing.T) {
	f := Fragment{
		LMark:      true,
		RMark:      false,
		Abundances: []uint16{5, 6, 7},
		Bases:      []byte("ACGTACGT"),
	}

	var buf bytes.Buffer
	if err := writeFragment(&buf, f); err != nil {
		t.Fatalf("writeFragment: %v", err)
	}

	got, err := readFragment(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFragment: %v", err)
	}
	if got.LMark != f.LMark || got.RMark != f.RMark {
		t.Fatalf("marks = %v/%v, want %v/%v", got.LMark, got.RMark, f.LMark, f.RMark)
	}
	if string(got.Bases) != string(f.Bases) {
		t.Fatalf("bases = %q, want %q", got.Bases, f.Bases)
	}
	if len(got.Abundances) != 3 || got.Abundances[1] != 6 {
		t.Fatalf("abundances = %v, want [5 6 7]", got.Abundances)
	}
}

func TestReadFragmentEOF(t *testing.T) {
	_, err := readFragment(bufio.NewReader(&bytes.Buffer{}))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFragmentMultipleRecords(t *testing.T) {
	var buf bytes.Buffer
	writeFragment(&buf, Fragment{LMark: false, RMark: true, Abundances: []uint16{1}, Bases: []byte("AAAA")})
	writeFragment(&buf, Fragment{LMark: true, RMark: true, Abundances: []uint16{2, 3}, Bases: []byte("CCCC")})

	r := bufio.NewReader(&buf)
	first, err := readFragment(r)
	if err != nil {
		t.Fatalf("first readFragment: %v", err)
	}
	if string(first.Bases) != "AAAA" {
		t.Fatalf("first bases = %q", first.Bases)
	}

	second, err := readFragment(r)
	if err != nil {
		t.Fatalf("second readFragment: %v", err)
	}
	if string(second.Bases) != "CCCC" || !second.LMark || !second.RMark {
		t.Fatalf("second fragment = %+v", second)
	}

	if _, err := readFragment(r); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}
