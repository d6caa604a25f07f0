package kmercode

import (
	"bytes"
	"math/rand"
	"testing"
)

var randomMers [][]byte
var randomMersN = 10000

func init() {
	randomMers = make([][]byte, randomMersN)
	for i := 0; i < randomMersN; i++ {
		randomMers[i] = make([]byte, rand.Intn(32)+1)
		for j := range randomMers[i] {
			randomMers[i][j] = bit2base[rand.Intn(4)]
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, mer := range randomMers {
		kcode, err := NewKmerCode(mer)
		if err != nil {
			t.Errorf("Encode error: %s", mer)
		}
		if !bytes.Equal(mer, kcode.Bytes()) {
			t.Errorf("Decode error: %s != %s", mer, kcode.Bytes())
		}
	}
}

func TestRevComp(t *testing.T) {
	for _, mer := range randomMers {
		kcode, _ := NewKmerCode(mer)
		if !kcode.Rev().Rev().Equal(kcode) {
			t.Errorf("Rev() error: %s, Rev(): %s", kcode, kcode.Rev())
		}
		if !kcode.Comp().Comp().Equal(kcode) {
			t.Errorf("Comp() error: %s, Comp(): %s", kcode, kcode.Comp())
		}
		if !kcode.RevComp().RevComp().Equal(kcode) {
			t.Errorf("RevComp() error: %s, RevComp(): %s", kcode, kcode.RevComp())
		}
	}
}

func TestCanonical(t *testing.T) {
	mer := []byte("AGGCGCC")
	kcode, err := NewKmerCode(mer)
	if err != nil {
		t.Fatal(err)
	}
	can := kcode.Canonical()
	rc := kcode.RevComp()
	if can.Code != kcode.Code && can.Code != rc.Code {
		t.Errorf("canonical form must be forward or reverse-complement")
	}
	if can.Code > rc.Code && can.Code > kcode.Code {
		t.Errorf("canonical form must be the lexicographic minimum")
	}
}

func TestLeftRightKMinus1Mer(t *testing.T) {
	kcode, err := NewKmerCode([]byte("AGGCGCC"))
	if err != nil {
		t.Fatal(err)
	}
	left := kcode.LeftKMinus1Mer()
	right := kcode.RightKMinus1Mer()
	if left.K != 6 || right.K != 6 {
		t.Fatalf("expected k-1=6, got %d and %d", left.K, right.K)
	}
	if string(left.Bytes()) != "AGGCGC" {
		t.Errorf("left (k-1)-mer = %s, want AGGCGC", left.Bytes())
	}
	if string(right.Bytes()) != "GGCGCC" {
		t.Errorf("right (k-1)-mer = %s, want GGCGCC", right.Bytes())
	}
}

func TestCodecForSpan(t *testing.T) {
	cases := []struct {
		k    int
		want SpanCodec
	}{
		{1, Span32},
		{32, Span32},
		{33, Span64},
		{64, Span64},
		{65, Span96},
		{96, Span96},
		{97, Span128},
		{128, Span128},
	}
	for _, c := range cases {
		codec, err := CodecForSpan(c.k)
		if err != nil {
			t.Fatalf("CodecForSpan(%d): %s", c.k, err)
		}
		if codec != c.want {
			t.Errorf("CodecForSpan(%d) picked the wrong width", c.k)
		}
	}
	if _, err := CodecForSpan(0); err == nil {
		t.Error("CodecForSpan(0) should error")
	}
	if _, err := CodecForSpan(129); err == nil {
		t.Error("CodecForSpan(129) should error")
	}
}

func TestWideSpanEncodeDecodeRoundtrip(t *testing.T) {
	mer := bytes.Repeat([]byte("ACGT"), 20) // 80 bases, exercises span96
	w, err := Span96.Encode(mer)
	if err != nil {
		t.Fatal(err)
	}
	got := Span96.Bytes(w, len(mer))
	if !bytes.Equal(got, mer) {
		t.Errorf("span96 roundtrip mismatch: got %s want %s", got, mer)
	}
}
