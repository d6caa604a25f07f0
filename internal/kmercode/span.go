package kmercode

// SpanCodec is implemented by each concrete k-mer width. The engine
// selects exactly one implementation at Configurator startup (the
// "Dynamic span dispatch" design note) based on the configured k, and
// every stage downstream operates through this interface rather than
// switching on k itself.
type SpanCodec interface {
	// MaxSpan is the largest k this codec supports.
	MaxSpan() int
	// Encode packs raw bases into the codec's native word.
	Encode(kmer []byte) (Word, error)
	// Canonical returns the canonical form of a Word of the given k.
	Canonical(w Word, k int) Word
	// Less reports whether a < b, used to sort/compare codes of this width.
	Less(a, b Word) bool
	// Bytes decodes a Word of the given k back to ACGT bases.
	Bytes(w Word, k int) []byte
}

// Word is a span-agnostic k-mer payload. Concrete codecs populate only
// the limbs they need; unused limbs stay zero.
type Word struct {
	Lo uint64
	Hi [3]uint64 // extra 64-bit limbs for spans beyond 32
}

// span32 backs k in (0, 32].
type span32 struct{}

// Span32 is the SpanCodec for k <= 32, the only span exercised by the
// teacher and by every scenario in spec.md §8.
var Span32 SpanCodec = span32{}

func (span32) MaxSpan() int { return 32 }

func (span32) Encode(kmer []byte) (Word, error) {
	code, err := Encode(kmer)
	return Word{Lo: code}, err
}

func (span32) Canonical(w Word, k int) Word {
	kc := KmerCode{Code: w.Lo, K: k}.Canonical()
	return Word{Lo: kc.Code}
}

func (span32) Less(a, b Word) bool { return a.Lo < b.Lo }

func (span32) Bytes(w Word, k int) []byte { return Decode(w.Lo, k) }

// span96 backs k in (32, 64] or (32, 96], stored as up to three 32-base
// limbs (Hi[1], Hi[0], Lo), most-significant limb first, each limb
// encoded exactly like a span32 Word over its slice of bases. numLimbs
// bounds how many of those three limbs this particular codec uses, so
// Span64 (two limbs) and Span96 (three limbs) share the same machinery
// while still rejecting k > 64 on the narrower codec.
type span96 struct {
	limbBases int
	numLimbs  int
}

// Span64 backs k in (32, 64].
var Span64 SpanCodec = span96{limbBases: 32, numLimbs: 2}

// Span96 backs k in (64, 96].
var Span96 SpanCodec = span96{limbBases: 32, numLimbs: 3}

func (s span96) MaxSpan() int { return s.numLimbs * s.limbBases }

func (s span96) Encode(kmer []byte) (Word, error) {
	var w Word
	n := len(kmer)
	if n == 0 || n > s.MaxSpan() {
		return w, ErrKOverflow
	}
	limbs := [3][]byte{}
	rest := kmer
	idx := 0
	for len(rest) > 0 && idx < s.numLimbs {
		take := s.limbBases
		if take > len(rest) {
			take = len(rest)
		}
		limbs[idx] = rest[len(rest)-take:]
		rest = rest[:len(rest)-take]
		idx++
	}
	var err error
	if len(limbs[0]) > 0 {
		w.Lo, err = Encode(limbs[0])
		if err != nil {
			return w, err
		}
	}
	if len(limbs[1]) > 0 {
		w.Hi[0], err = Encode(limbs[1])
		if err != nil {
			return w, err
		}
	}
	if len(limbs[2]) > 0 {
		w.Hi[1], err = Encode(limbs[2])
		if err != nil {
			return w, err
		}
	}
	return w, nil
}

func (s span96) Canonical(w Word, k int) Word {
	fwd := w
	rc := s.revComp(w, k)
	if s.Less(rc, fwd) {
		return rc
	}
	return fwd
}

// revComp reverse-complements a multi-limb word by reverse-complementing
// each limb and swapping limb order, the natural generalization of the
// single-word RevComp used by span32.
func (s span96) revComp(w Word, k int) Word {
	limbSizes := s.limbSizes(k)
	var out Word
	// limb order after reversal: what was the last (most significant
	// non-empty) limb becomes Lo, etc.
	nonEmpty := make([]int, 0, 3)
	for i, sz := range limbSizes {
		if sz > 0 {
			nonEmpty = append(nonEmpty, i)
		}
	}
	vals := [3]uint64{w.Lo, w.Hi[0], w.Hi[1]}
	rcVals := make([]uint64, len(nonEmpty))
	for i, idx := range nonEmpty {
		rcVals[len(nonEmpty)-1-i] = RevComp(vals[idx], limbSizes[idx])
	}
	if len(rcVals) > 0 {
		out.Lo = rcVals[0]
	}
	if len(rcVals) > 1 {
		out.Hi[0] = rcVals[1]
	}
	if len(rcVals) > 2 {
		out.Hi[1] = rcVals[2]
	}
	return out
}

func (s span96) limbSizes(k int) [3]int {
	var sizes [3]int
	rest := k
	for i := 0; i < 3 && rest > 0; i++ {
		take := s.limbBases
		if take > rest {
			take = rest
		}
		sizes[i] = take
		rest -= take
	}
	return sizes
}

func (s span96) Less(a, b Word) bool {
	if a.Hi[1] != b.Hi[1] {
		return a.Hi[1] < b.Hi[1]
	}
	if a.Hi[0] != b.Hi[0] {
		return a.Hi[0] < b.Hi[0]
	}
	return a.Lo < b.Lo
}

func (s span96) Bytes(w Word, k int) []byte {
	sizes := s.limbSizes(k)
	out := make([]byte, 0, k)
	vals := [3]uint64{w.Hi[1], w.Hi[0], w.Lo}
	// emit most-significant limb first
	if sizes[2] > 0 {
		out = append(out, Decode(vals[0], sizes[2])...)
	}
	if sizes[1] > 0 {
		out = append(out, Decode(vals[1], sizes[1])...)
	}
	if sizes[0] > 0 {
		out = append(out, Decode(vals[2], sizes[0])...)
	}
	return out
}

// span128 backs k in (96, 128], stored across all four limbs.
type span128 struct{}

// Span128 is the SpanCodec for the widest supported span.
var Span128 SpanCodec = span128{}

func (span128) MaxSpan() int { return 128 }

func (span128) Encode(kmer []byte) (Word, error) {
	n := len(kmer)
	var w Word
	if n == 0 || n > 128 {
		return w, ErrKOverflow
	}
	// reuse span96's limb-splitting by chunking into 32-base groups,
	// most-significant first, same convention as span96.
	chunks := make([][]byte, 0, 4)
	rest := kmer
	for len(rest) > 0 {
		take := 32
		if take > len(rest) {
			take = len(rest)
		}
		chunks = append([][]byte{rest[len(rest)-take:]}, chunks...)
		rest = rest[:len(rest)-take]
	}
	limbs := [4]uint64{}
	for i, c := range chunks {
		code, err := Encode(c)
		if err != nil {
			return w, err
		}
		limbs[len(chunks)-1-i] = code
	}
	w.Lo = limbs[0]
	w.Hi[0], w.Hi[1], w.Hi[2] = limbs[1], limbs[2], limbs[3]
	return w, nil
}

func (span128) limbSizes(k int) [4]int {
	var sizes [4]int
	rest := k
	for i := 0; i < 4 && rest > 0; i++ {
		take := 32
		if take > rest {
			take = rest
		}
		sizes[i] = take
		rest -= take
	}
	return sizes
}

func (c span128) Canonical(w Word, k int) Word {
	rc := c.revComp(w, k)
	if c.Less(rc, w) {
		return rc
	}
	return w
}

func (c span128) revComp(w Word, k int) Word {
	sizes := c.limbSizes(k)
	vals := [4]uint64{w.Lo, w.Hi[0], w.Hi[1], w.Hi[2]}
	nonEmpty := make([]int, 0, 4)
	for i, sz := range sizes {
		if sz > 0 {
			nonEmpty = append(nonEmpty, i)
		}
	}
	rcVals := make([]uint64, len(nonEmpty))
	for i, idx := range nonEmpty {
		rcVals[len(nonEmpty)-1-i] = RevComp(vals[idx], sizes[idx])
	}
	var out Word
	limbs := [4]uint64{}
	copy(limbs[:], rcVals)
	out.Lo, out.Hi[0], out.Hi[1], out.Hi[2] = limbs[0], limbs[1], limbs[2], limbs[3]
	return out
}

func (span128) Less(a, b Word) bool {
	if a.Hi[2] != b.Hi[2] {
		return a.Hi[2] < b.Hi[2]
	}
	if a.Hi[1] != b.Hi[1] {
		return a.Hi[1] < b.Hi[1]
	}
	if a.Hi[0] != b.Hi[0] {
		return a.Hi[0] < b.Hi[0]
	}
	return a.Lo < b.Lo
}

func (c span128) Bytes(w Word, k int) []byte {
	sizes := c.limbSizes(k)
	vals := [4]uint64{w.Hi[2], w.Hi[1], w.Hi[0], w.Lo}
	out := make([]byte, 0, k)
	for i := 0; i < 4; i++ {
		if sizes[3-i] > 0 {
			out = append(out, Decode(vals[i], sizes[3-i])...)
		}
	}
	return out
}

// CodecForSpan returns the narrowest supported codec for k, as the
// Configurator does once at startup.
func CodecForSpan(k int) (SpanCodec, error) {
	switch {
	case k <= 0 || k > 128:
		return nil, ErrKOverflow
	case k <= 32:
		return Span32, nil
	case k <= 64:
		return Span64, nil
	case k <= 96:
		return Span96, nil
	default:
		return Span128, nil
	}
}
