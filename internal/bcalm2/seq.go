package bcalm2

var complementBase = [256]byte{}

func init() {
	for i := range complementBase {
		complementBase[i] = byte(i)
	}
	pairs := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}
	for a, b := range pairs {
		complementBase[a] = b
		complementBase[b] = a
	}
}

// revCompBytes reverse-complements an arbitrary-length ACGT sequence.
// kmercode's RevComp only operates on <=32-base 2-bit-packed codes; a
// glued unitig sequence routinely exceeds that, so fragment/unitig
// concatenation works directly on bytes instead.
func revCompBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = complementBase[c]
	}
	return out
}

func reverseAbundances(a []uint16) []uint16 {
	out := make([]uint16, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return out
}
