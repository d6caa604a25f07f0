package bcalm2

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/iox"
)

func writeGlueFile(t *testing.T, path string, frags ...Fragment) {
	t.Helper()
	w, err := iox.CreateStream(path, false)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	for _, f := range frags {
		if err := writeFragment(w, f); err != nil {
			t.Fatalf("writeFragment: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestGluerStitchesTwoFragments(t *testing.T) {
	k := 5
	fragA := Fragment{LMark: false, RMark: true, Abundances: []uint16{1, 2, 3, 4}, Bases: []byte("ACGTACGT")}
	fragB := Fragment{LMark: true, RMark: false, Abundances: []uint16{10, 20, 30, 40}, Bases: []byte("TACGTACG")}

	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.fa")
	pathB := filepath.Join(dir, "b.fa")
	writeGlueFile(t, pathA, fragA)
	writeGlueFile(t, pathB, fragB)

	out := filepath.Join(dir, "unitigs.fa")
	g := &Gluer{K: k, NbCores: 2, NGluePartitions: 1}
	stats := &engine.Stats{}
	if err := g.Run([]string{pathA, pathB}, out, false, stats); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r, err := iox.OpenStream(out)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r.Reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if !strings.Contains(string(data), "ACGTACGTACG") {
		t.Fatalf("expected stitched sequence in output, got %q", data)
	}
	if stats.Snapshot().UnitigsEmitted != 1 {
		t.Fatalf("UnitigsEmitted = %d, want 1", stats.Snapshot().UnitigsEmitted)
	}
}

func TestGluerEmitsUnmarkedFragmentDirectly(t *testing.T) {
	k := 5
	frag := Fragment{LMark: false, RMark: false, Abundances: []uint16{1, 2}, Bases: []byte("ACGTAC")}

	dir := t.TempDir()
	path := filepath.Join(dir, "a.fa")
	writeGlueFile(t, path, frag)

	out := filepath.Join(dir, "unitigs.fa")
	g := &Gluer{K: k, NbCores: 1, NGluePartitions: 1}
	stats := &engine.Stats{}
	if err := g.Run([]string{path}, out, false, stats); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r, err := iox.OpenStream(out)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r.Reader)
	if !strings.Contains(string(data), "ACGTAC") {
		t.Fatalf("expected unmarked fragment emitted verbatim, got %q", data)
	}
}
