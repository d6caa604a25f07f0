package dsk

import "testing"

func TestParseSolidityKind(t *testing.T) {
	cases := map[string]SolidityKind{
		"":     SolidityOne,
		"one":  SolidityOne,
		"all":  SolidityAll,
		"min":  SolidityMin,
		"max":  SolidityMax,
		"sum":  SoliditySum,
	}
	for s, want := range cases {
		got, err := ParseSolidityKind(s)
		if err != nil {
			t.Fatalf("ParseSolidityKind(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("ParseSolidityKind(%q) = %v, want %v", s, got, want)
		}
		if got.String() != s && !(s == "" && got.String() == "one") {
			t.Fatalf("String() roundtrip mismatch for %q: got %q", s, got.String())
		}
	}
}

func TestParseSolidityKindRejectsUnknown(t *testing.T) {
	if _, err := ParseSolidityKind("bogus"); err == nil {
		t.Fatal("expected error for unknown solidity kind")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{KmerSize: 31, MinimizerSize: 10}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	badK := Config{KmerSize: 0, MinimizerSize: 1}
	if err := badK.Validate(); err == nil {
		t.Fatal("expected error for kmer_size=0")
	}

	badM := Config{KmerSize: 21, MinimizerSize: 25}
	if err := badM.Validate(); err == nil {
		t.Fatal("expected error for minimizer_size > kmer_size")
	}

	badAbundance := Config{KmerSize: 21, MinimizerSize: 10, AbundanceMin: 5, AbundanceMax: 2}
	if err := badAbundance.Validate(); err == nil {
		t.Fatal("expected error for abundance_max < abundance_min")
	}
}

func TestEffectiveAbundanceMax(t *testing.T) {
	c := Config{AbundanceMax: 0}
	if c.effectiveAbundanceMax() != ^uint16(0) {
		t.Fatal("zero AbundanceMax should mean unlimited")
	}
	c.AbundanceMax = 42
	if c.effectiveAbundanceMax() != 42 {
		t.Fatal("non-zero AbundanceMax should pass through")
	}
}

func TestMaxOpenFilesDefault(t *testing.T) {
	c := Config{}
	if c.maxOpenFiles() != 1024 {
		t.Fatalf("default maxOpenFiles = %d, want 1024", c.maxOpenFiles())
	}
	c.MaxOpenFiles = 64
	if c.maxOpenFiles() != 64 {
		t.Fatal("explicit MaxOpenFiles should pass through")
	}
}
