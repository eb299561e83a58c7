// Package scene provides renderers that receive tiles from a tile grid.
package scene

import (
	"sort"
	"sync"

	"github.com/Faultbox/terrarium/internal/tilegrid"
)

// Counts tallies renderer calls for one tile.
type Counts struct {
	Added    int
	Updated  int
	Disposed int
}

// Recorder is an in-memory scene. It keeps the tiles currently added and
// counts every call per tile key.
type Recorder struct {
	mu     sync.Mutex
	live   map[string]*tilegrid.Tile
	counts map[string]*Counts
}

// NewRecorder creates an empty scene.
func NewRecorder() *Recorder {
	return &Recorder{
		live:   make(map[string]*tilegrid.Tile),
		counts: make(map[string]*Counts),
	}
}

func (r *Recorder) Add(t *tilegrid.Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[t.Key()] = t
	r.count(t.Key()).Added++
}

func (r *Recorder) Update(t *tilegrid.Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count(t.Key()).Updated++
}

func (r *Recorder) Dispose(t *tilegrid.Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, t.Key())
	r.count(t.Key()).Disposed++
}

func (r *Recorder) count(key string) *Counts {
	c, ok := r.counts[key]
	if !ok {
		c = &Counts{}
		r.counts[key] = c
	}
	return c
}

// Counts returns the call counts of a tile key.
func (r *Recorder) Counts(key string) Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counts[key]; ok {
		return *c
	}
	return Counts{}
}

// Totals sums the counts over all keys.
func (r *Recorder) Totals() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum Counts
	for _, c := range r.counts {
		sum.Added += c.Added
		sum.Updated += c.Updated
		sum.Disposed += c.Disposed
	}
	return sum
}

// Live returns the keys of tiles currently in the scene, sorted.
func (r *Recorder) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.live))
	for k := range r.live {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Multi fans renderer calls out to several renderers in order.
type Multi []tilegrid.Renderer

func (m Multi) Add(t *tilegrid.Tile) {
	for _, r := range m {
		r.Add(t)
	}
}

func (m Multi) Update(t *tilegrid.Tile) {
	for _, r := range m {
		r.Update(t)
	}
}

func (m Multi) Dispose(t *tilegrid.Tile) {
	for _, r := range m {
		r.Dispose(t)
	}
}
