package meshbuild

import (
	"sort"
	"sync"

	"github.com/foss-geo/tileindex/api"
)

// ThresholdSize is the vertex-buffer capacity boundary between "small" and
// "large" pooled meshes (spec.md §4.10).
const ThresholdSize = 4096

// Pool is the capacity-tiered mesh free list (spec.md §4.10, §9 "Mesh
// reuse pool"): a sorted multimap keyed by vertex-buffer capacity.
type Pool struct {
	mu    sync.Mutex
	byCap map[int][]*api.Mesh
	caps  []int // sorted ascending, kept in sync with byCap's keys
}

func NewPool() *Pool {
	return &Pool{byCap: make(map[int][]*api.Mesh)}
}

// GetSmall pops the pooled mesh with the smallest capacity, or allocates
// fresh if the pool is empty.
func (p *Pool) GetSmall(name string) *api.Mesh {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.caps) == 0 {
		return fresh(name)
	}
	return p.popAt(0, name)
}

// GetLarge pops a pooled mesh whose capacity strictly exceeds
// ThresholdSize, or allocates fresh if none qualifies.
func (p *Pool) GetLarge(name string) *api.Mesh {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := sort.Search(len(p.caps), func(i int) bool { return p.caps[i] > ThresholdSize })
	if i == len(p.caps) {
		return fresh(name)
	}
	return p.popAt(i, name)
}

// popAt pops one mesh from the bucket at p.caps[i], removing the capacity
// entry entirely once its bucket is drained.
func (p *Pool) popAt(i int, name string) *api.Mesh {
	c := p.caps[i]
	bucket := p.byCap[c]
	m := bucket[len(bucket)-1]
	bucket = bucket[:len(bucket)-1]
	if len(bucket) == 0 {
		delete(p.byCap, c)
		p.caps = append(p.caps[:i], p.caps[i+1:]...)
	} else {
		p.byCap[c] = bucket
	}
	m.Name = name
	return m
}

// Release clears mesh's buffers (retaining capacity) and returns it to
// the pool, bucketed by its current vertex capacity.
func (p *Pool) Release(mesh *api.Mesh) {
	mesh.Reset()
	c := mesh.Capacity()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byCap[c]; !ok {
		i := sort.SearchInts(p.caps, c)
		p.caps = append(p.caps, 0)
		copy(p.caps[i+1:], p.caps[i:])
		p.caps[i] = c
	}
	p.byCap[c] = append(p.byCap[c], mesh)
}

func fresh(name string) *api.Mesh {
	return &api.Mesh{Name: name}
}
