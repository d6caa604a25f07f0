package minimizer

import "testing"

func TestNewSketchRejectsBadParams(t *testing.T) {
	if _, err := NewSketch([]byte("ACGTACGT"), 8, 0, LexOrder, nil); err != ErrInvalidM {
		t.Errorf("m=0 should be rejected, got %v", err)
	}
	if _, err := NewSketch([]byte("ACGTACGT"), 8, 9, LexOrder, nil); err != ErrInvalidM {
		t.Errorf("m>k should be rejected, got %v", err)
	}
	if _, err := NewSketch([]byte("ACG"), 8, 4, LexOrder, nil); err != ErrShortSeq {
		t.Errorf("seq shorter than k should be rejected, got %v", err)
	}
}

func TestSketchWindowCount(t *testing.T) {
	seq := []byte("ACGTACGTACGTACGT") // 16 bases
	k, m := 8, 4
	s, err := NewSketch(seq, k, m, LexOrder, nil)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for {
		_, ok := s.Next()
		if !ok {
			break
		}
		count++
	}
	want := len(seq) - k + 1
	if count != want {
		t.Errorf("got %d windows, want %d", count, want)
	}
}

func TestSketchCurrentIndexAdvances(t *testing.T) {
	seq := []byte("ACGTACGTACGT")
	s, err := NewSketch(seq, 6, 3, LexOrder, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; ; i++ {
		_, ok := s.Next()
		if !ok {
			break
		}
		if s.CurrentIndex() != i {
			t.Errorf("CurrentIndex() = %d, want %d", s.CurrentIndex(), i)
		}
	}
}

func TestSketchFrequencyOrderWindowCountMatchesLex(t *testing.T) {
	seq := []byte("ACGTACGTACGTACGTACGT")
	k, m := 8, 4
	lex, err := NewSketch(seq, k, m, LexOrder, nil)
	if err != nil {
		t.Fatal(err)
	}

	// an empty table ranks no m-mer, so the frequency sketch falls back
	// to the plain hash values; both iterators must yield the same
	// number of windows.
	freq := FrequencyTable{}
	freqSketch, err := NewSketch(seq, k, m, FrequencyOrder, freq)
	if err != nil {
		t.Fatal(err)
	}

	for {
		lv, lok := lex.Next()
		fv, fok := freqSketch.Next()
		if lok != fok {
			t.Fatalf("iterator length mismatch: lex ok=%v freq ok=%v", lok, fok)
		}
		if !lok {
			break
		}
		_ = lv
		_ = fv
	}
}

func TestRepartitionTableDeterministic(t *testing.T) {
	mzs := []uint64{1, 2, 3, 4, 5, 100, 200}
	rt := NewRepartitionTable(mzs, 4)
	for _, mz := range mzs {
		p1 := rt.Partition(mz)
		p2 := rt.Partition(mz)
		if p1 != p2 {
			t.Errorf("Partition(%d) not stable: %d != %d", mz, p1, p2)
		}
		if p1 < 0 || p1 >= 4 {
			t.Errorf("Partition(%d) = %d out of range [0,4)", mz, p1)
		}
	}
	if rt.Len() != len(mzs) {
		t.Errorf("Len() = %d, want %d", rt.Len(), len(mzs))
	}
}

func TestRepartitionTableUnknownMinimizerStillAssigned(t *testing.T) {
	rt := NewRepartitionTable([]uint64{1, 2, 3}, 4)
	p := rt.Partition(999) // never seen in the sample
	if p < 0 || p >= 4 {
		t.Errorf("unknown minimizer got out-of-range partition %d", p)
	}
}
