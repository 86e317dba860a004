package facematch

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/coder/hnsw"

	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// IndexedMatcher answers queries from an HNSW graph built over the roster.
// Unlike FirstMatcher it returns the nearest candidate under the threshold,
// so it is only used when MATCH_STRATEGY=hnsw is configured explicitly.
//
// One graph is cached per tenant and rebuilt when that tenant's roster
// changes.
type IndexedMatcher struct {
	Threshold float64

	mu      sync.Mutex
	indexes map[string]*rosterIndex
	builds  int
}

// rosterIndex is the graph of one tenant's roster. Node keys are roster
// positions.
type rosterIndex struct {
	graph     *hnsw.Graph[int]
	signature uint64
	size      int
	dim       int
}

// NewIndexedMatcher returns an IndexedMatcher with the given threshold, or
// the default one when threshold is not positive.
func NewIndexedMatcher(threshold float64) *IndexedMatcher {
	if threshold <= 0 {
		threshold = constants.DefaultMatchThreshold
	}
	return &IndexedMatcher{Threshold: threshold, indexes: make(map[string]*rosterIndex)}
}

func rosterSignature(roster []database.Employee) uint64 {
	h := fnv.New64a()
	for i := range roster {
		_, _ = h.Write([]byte(roster[i].ID))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func buildIndex(roster []database.Employee, sig uint64) (*rosterIndex, error) {
	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	dim := 0
	for i := range roster {
		desc := roster[i].Descriptor
		if len(desc) == 0 || (dim != 0 && len(desc) != dim) {
			return nil, fmt.Errorf("%w: employee %s has %d values", ErrInvalidDescriptor, roster[i].ID, len(desc))
		}
		dim = len(desc)
		g.Add(hnsw.MakeNode(i, desc))
	}

	return &rosterIndex{graph: g, signature: sig, size: len(roster), dim: dim}, nil
}

func (m *IndexedMatcher) Match(roster []database.Employee, query []float32) (*database.Employee, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidDescriptor)
	}
	if len(roster) == 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexes == nil {
		m.indexes = make(map[string]*rosterIndex)
	}

	// A roster never mixes tenants
	tenant := roster[0].Tenant
	sig := rosterSignature(roster)
	idx := m.indexes[tenant]
	if idx == nil || sig != idx.signature || len(roster) != idx.size {
		built, err := buildIndex(roster, sig)
		if err != nil {
			delete(m.indexes, tenant)
			return nil, err
		}
		m.builds++
		m.indexes[tenant] = built
		idx = built
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: lengths %d and %d", ErrInvalidDescriptor, idx.dim, len(query))
	}

	var best *database.Employee
	bestDist := m.Threshold
	for _, n := range idx.graph.Search(query, constants.HNSWSearchCandidates) {
		if n.Key < 0 || n.Key >= len(roster) {
			continue
		}
		// Exact distance; the graph is only used for candidate selection.
		dist, err := EuclideanDistance(roster[n.Key].Descriptor, query)
		if err != nil {
			return nil, err
		}
		if dist < bestDist {
			best = &roster[n.Key]
			bestDist = dist
		}
	}
	return best, nil
}
