package bcalm2

import "sync"

// UnionFind is a sharded disjoint-set structure over a dense index
// space, spec.md §5's union-find sizing note ("shard the union-find
// across up to 1000 mutexes"), grounded on the teacher's per-partition
// mutex idiom (unikmer/cmd/merge.go) generalized from N partition
// locks to N shard locks protecting slices of one big parent array.
type UnionFind struct {
	parent []uint32
	shards []sync.Mutex
}

const maxUnionFindShards = 1000

// NewUnionFind allocates a union-find over n singleton elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]uint32, n)
	for i := range parent {
		parent[i] = uint32(i)
	}
	numShards := n
	if numShards > maxUnionFindShards {
		numShards = maxUnionFindShards
	}
	if numShards < 1 {
		numShards = 1
	}
	return &UnionFind{parent: parent, shards: make([]sync.Mutex, numShards)}
}

func (uf *UnionFind) shardOf(i uint32) int {
	return int(i) % len(uf.shards)
}

// Find returns the representative of i's set, compressing the path it
// walks. The shard lock for each node visited is taken individually,
// never held across more than one parent read/write at a time, so Find
// never needs the two-shard lock ordering Union does.
func (uf *UnionFind) Find(i uint32) uint32 {
	for {
		uf.shards[uf.shardOf(i)].Lock()
		p := uf.parent[i]
		uf.shards[uf.shardOf(i)].Unlock()
		if p == i {
			return i
		}

		uf.shards[uf.shardOf(p)].Lock()
		gp := uf.parent[p]
		uf.shards[uf.shardOf(p)].Unlock()

		uf.shards[uf.shardOf(i)].Lock()
		if uf.parent[i] == p {
			uf.parent[i] = gp
		}
		uf.shards[uf.shardOf(i)].Unlock()

		i = p
	}
}

// Union merges the sets containing a and b. When a and b's roots fall
// in different shards, both shard locks are taken in ascending shard
// index order to avoid an ABBA deadlock against a concurrent Union on
// the same pair of shards in the opposite order.
func (uf *UnionFind) Union(a, b uint32) {
	for {
		ra, rb := uf.Find(a), uf.Find(b)
		if ra == rb {
			return
		}

		sa, sb := uf.shardOf(ra), uf.shardOf(rb)
		first, second := sa, sb
		lo, hi := ra, rb
		if sa > sb {
			first, second = sb, sa
			lo, hi = rb, ra
		}

		uf.shards[first].Lock()
		if first != second {
			uf.shards[second].Lock()
		}

		// Re-validate both roots are still roots under lock; if not,
		// another Union beat us to it and we retry from the top.
		if uf.parent[lo] != lo || uf.parent[hi] != hi {
			uf.shards[first].Unlock()
			if first != second {
				uf.shards[second].Unlock()
			}
			continue
		}
		uf.parent[lo] = hi

		uf.shards[first].Unlock()
		if first != second {
			uf.shards[second].Unlock()
		}
		return
	}
}
