package unitig

import "github.com/GATB/gatb-core-sub000/internal/kmercode"

// Neighbor is one edge returned by UnitigGraph.Neighbors.
type Neighbor struct {
	Code     uint64
	UnitigID uint32
}

// interiorDir reports the direction (relative to the entry's own
// canonical code) that walks from this extremity into its unitig's
// body, and false for PosBoth entries which have no interior.
func interiorDir(e ExtremityEntry) (Dir, bool) {
	switch e.Pos() {
	case PosBegin:
		if e.Flipped() {
			return Left, true
		}
		return Right, true
	case PosEnd:
		if e.Flipped() {
			return Right, true
		}
		return Left, true
	default:
		return 0, false
	}
}

// farExtremity returns the canonical k-mer at the opposite extremity
// of e's unitig. A unitig has no internal branches by construction, so
// jumping straight there is equivalent to, and cheaper than, stepping
// through it one k-mer at a time.
func (g *UnitigGraph) farExtremity(e ExtremityEntry) (uint64, bool) {
	seq := g.Seqs[e.UnitigID]
	if len(seq) == g.K {
		return 0, false
	}
	switch e.Pos() {
	case PosBegin:
		code, _, _ := canonicalOf(seq[len(seq)-g.K:])
		return code, true
	case PosEnd:
		code, _, _ := canonicalOf(seq[:g.K])
		return code, true
	}
	return 0, false
}

// Neighbors returns up to 4 edges leaving node in direction dir,
// spec.md §4.7. If node sits on the side of a non-trivial unitig that
// leads into its body, the single neighbor is that unitig's far
// extremity; otherwise every nucleotide extension is canonicalized and
// checked against the extremity hash. Deleted unitigs are skipped.
func (g *UnitigGraph) Neighbors(node uint64, dir Dir) []Neighbor {
	var interior []Neighbor
	for _, e := range g.extremities[node] {
		if g.Deleted[e.UnitigID] {
			continue
		}
		if id, ok := interiorDir(e); ok && id == dir {
			if far, ok := g.farExtremity(e); ok {
				interior = append(interior, Neighbor{Code: far, UnitigID: e.UnitigID})
			}
		}
	}
	if len(interior) > 0 {
		return interior
	}

	var out []Neighbor
	bases := kmercode.KmerCode{Code: node, K: g.K}.Bytes()
	for _, b := range [4]byte{'A', 'C', 'G', 'T'} {
		var candidate []byte
		if dir == Right {
			candidate = append(append([]byte{}, bases[1:]...), b)
		} else {
			candidate = append([]byte{b}, bases[:len(bases)-1]...)
		}
		code, err := kmercode.Encode(candidate)
		if err != nil {
			continue
		}
		canon := kmercode.KmerCode{Code: code, K: g.K}.Canonical().Code
		for _, e := range g.extremities[canon] {
			if g.Deleted[e.UnitigID] {
				continue
			}
			out = append(out, Neighbor{Code: canon, UnitigID: e.UnitigID})
		}
	}
	return out
}

func (g *UnitigGraph) Indegree(node uint64) int  { return len(g.Neighbors(node, Left)) }
func (g *UnitigGraph) Outdegree(node uint64) int { return len(g.Neighbors(node, Right)) }

// ExtremityOpen reports whether unitig id's extremity at code is a
// true dead end of the graph: no neighbor on the side facing away from
// id's own body. Indegree/Outdegree alone can't answer this -- which
// absolute Dir faces "into" versus "out of" a unitig depends on its
// Flipped bit, not on Left/Right as fixed labels.
func (g *UnitigGraph) ExtremityOpen(id uint32, code uint64) bool {
	e, ok := g.entryFor(id, code)
	if !ok {
		return true
	}
	if e.Pos() == PosBoth {
		return g.Indegree(code) == 0 && g.Outdegree(code) == 0
	}
	dir, ok := interiorDir(e)
	if !ok {
		return true
	}
	return len(g.Neighbors(code, dir.Opposite())) == 0
}

// IsBranching reports whether node has more than one neighbor on
// either side.
func (g *UnitigGraph) IsBranching(node uint64) bool {
	return g.Indegree(node) > 1 || g.Outdegree(node) > 1
}

// UnitigLastNode returns the canonical k-mer at the far end of node's
// unitig when dir is its interior side, or node itself with ok=false
// otherwise.
func (g *UnitigGraph) UnitigLastNode(node uint64, dir Dir) (uint64, bool) {
	for _, e := range g.extremities[node] {
		if g.Deleted[e.UnitigID] {
			continue
		}
		if id, ok := interiorDir(e); ok && id == dir {
			return g.farExtremity(e)
		}
	}
	return node, false
}

// UnitigDelete marks deleted=true for the unitig(s) owning node. Idempotent.
func (g *UnitigGraph) UnitigDelete(node uint64) {
	for _, e := range g.extremities[node] {
		g.Deleted[e.UnitigID] = true
	}
}

// SimplePathResult is the outcome of a simple-path traversal.
type SimplePathResult struct {
	Length       int
	MeanCoverage float64
	EndNode      uint64
	Branching    bool
	Sequence     []byte
	Visited      []uint32
}

// SimplePathAdvance traverses through concatenated unitigs from node in
// direction dir while the graph stays simple (exactly one neighbor at
// each step), accumulating length and coverage until a branch, a dead
// end, or maxLen is reached -- spec.md §4.7's
// `simplePathLongest_avance`. collectSeq controls whether the walked
// sequence is appended to the result (tip-length checks don't need it;
// bulge/EC alternative-path search does).
func (g *UnitigGraph) SimplePathAdvance(node uint64, dir Dir, maxLen int, collectSeq bool) SimplePathResult {
	neighbors := g.Neighbors(node, dir)
	if len(neighbors) == 0 {
		return SimplePathResult{EndNode: node}
	}
	if len(neighbors) > 1 {
		return SimplePathResult{EndNode: node, Branching: true}
	}
	return g.walkFrom(neighbors[0], dir, maxLen, collectSeq)
}

// walkFrom is SimplePathAdvance's stepping loop, seeded with a neighbor
// already chosen as the path's first hop -- shared with removeBulges,
// which must force the walk down one specific branch out of several at
// the starting node rather than require it to be the unique neighbor.
func (g *UnitigGraph) walkFrom(first Neighbor, dir Dir, maxLen int, collectSeq bool) SimplePathResult {
	var res SimplePathResult
	var covSum float64
	var covCount int
	cur := first

	for {
		seq := g.Seqs[cur.UnitigID]
		res.Length += len(seq) - g.K + 1
		covSum += g.MeanAbundance[cur.UnitigID]
		covCount++
		res.Visited = append(res.Visited, cur.UnitigID)
		if collectSeq {
			res.Sequence = append(res.Sequence, seq...)
		}
		res.EndNode = cur.Code

		if res.Length >= maxLen {
			break
		}
		if g.IsBranching(cur.Code) {
			res.Branching = true
			break
		}
		neighbors := g.Neighbors(cur.Code, dir)
		if len(neighbors) == 0 {
			break
		}
		if len(neighbors) > 1 {
			res.Branching = true
			break
		}
		cur = neighbors[0]
	}

	if covCount > 0 {
		res.MeanCoverage = covSum / float64(covCount)
	}
	return res
}
