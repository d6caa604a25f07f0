package bcalm2

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fragment is one maximal non-branching path extracted by the
// Compactor, spec.md §4.5: a sequence plus one abundance per k-mer
// along the path, and marks noting whether either end still needs
// gluing to a fragment from a different bucket.
type Fragment struct {
	LMark      bool
	RMark      bool
	Abundances []uint16
	Bases      []byte
}

// writeFragment appends one glue-file record: header
// ">lmark rmark a1 a2 … an", e.g. ">1 0 5 6 7", then the sequence on
// its own line, spec.md §6.
func writeFragment(w io.Writer, f Fragment) error {
	var b strings.Builder
	b.WriteByte('>')
	b.WriteString(boolFlag(f.LMark))
	b.WriteByte(' ')
	b.WriteString(boolFlag(f.RMark))
	for _, a := range f.Abundances {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(a)))
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if _, err := w.Write(f.Bases); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// readFragment reads one glue-file record, or io.EOF once the file is
// exhausted.
func readFragment(r *bufio.Reader) (Fragment, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return Fragment{}, err
	}
	header = trimNL(header)
	if len(header) == 0 || header[0] != '>' {
		return Fragment{}, io.ErrUnexpectedEOF
	}
	fields := strings.Fields(header[1:])
	if len(fields) < 2 {
		return Fragment{}, fmt.Errorf("bcalm2: malformed glue header %q", header)
	}

	lmark, err := strconv.Atoi(fields[0])
	if err != nil {
		return Fragment{}, err
	}
	rmark, err := strconv.Atoi(fields[1])
	if err != nil {
		return Fragment{}, err
	}

	abundances := make([]uint16, 0, len(fields)-2)
	for _, f := range fields[2:] {
		a, err := strconv.Atoi(f)
		if err != nil {
			return Fragment{}, err
		}
		abundances = append(abundances, uint16(a))
	}

	seqLine, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return Fragment{}, err
	}

	return Fragment{
		LMark:      lmark != 0,
		RMark:      rmark != 0,
		Abundances: abundances,
		Bases:      []byte(trimNL(seqLine)),
	}, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func trimNL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
