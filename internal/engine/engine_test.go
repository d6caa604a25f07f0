package engine

import "testing"

func TestMixUnmixRoundtrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1 << 40, ^uint64(0)} {
		m := MixHash64(v)
		if got := UnmixHash64(m); got != v {
			t.Errorf("UnmixHash64(MixHash64(%d)) = %d, want %d", v, got, v)
		}
	}
}

func TestMultiErrorAggregation(t *testing.T) {
	var m MultiError
	if m.ErrOrNil() != nil {
		t.Fatal("empty MultiError should report nil")
	}
	m.Add(nil)
	if m.ErrOrNil() != nil {
		t.Fatal("adding nil should not produce an error")
	}
	m.Add(&CodecError{Reason: "short"})
	m.Add(&FilesystemError{Path: "x", Err: &CodecError{Reason: "y"}})
	if err := m.ErrOrNil(); err == nil {
		t.Fatal("expected aggregate error")
	}
	if len(m.Errs) != 2 {
		t.Errorf("got %d errs, want 2", len(m.Errs))
	}
}

func TestStatsSnapshotIsolated(t *testing.T) {
	var s Stats
	s.AddKmersRead(10)
	s.AddSolidKmers(3)
	snap := s.Snapshot()
	s.AddKmersRead(5)
	if snap.KmersRead != 10 {
		t.Errorf("snapshot KmersRead = %d, want 10", snap.KmersRead)
	}
	if s.KmersRead != 15 {
		t.Errorf("live KmersRead = %d, want 15", s.KmersRead)
	}
}
