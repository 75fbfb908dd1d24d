package selection

import (
	"sync"

	"github.com/matzehuels/linkboard/pkg/graph"
)

// Store holds the current selection of one session and notifies
// subscribers when it changes.
//
// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	cur    Set
	nextID int
	subs   map[int]func(Set)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subs: map[int]func(Set){}}
}

// Load returns the current selection.
func (st *Store) Load() Set {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur
}

// Replace swaps in a new selection. Subscribers are called only if the
// selection changed, outside the store's lock.
func (st *Store) Replace(s Set) {
	st.mu.Lock()
	if st.cur.Equal(s) {
		st.cur = s
		st.mu.Unlock()
		return
	}
	st.cur = s
	subs := make([]func(Set), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	st.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Clear empties the selection.
func (st *Store) Clear() { st.Replace(Set{}) }

// Sync drops references to entities no longer in g. Call it whenever the
// graph is replaced.
func (st *Store) Sync(g *graph.Graph) Set {
	s := st.Load().Filter(g)
	st.Replace(s)
	return s
}

// Subscribe registers fn to be called with each new selection. The returned
// function removes the subscription.
func (st *Store) Subscribe(fn func(Set)) (cancel func()) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.subs == nil {
		st.subs = map[int]func(Set){}
	}
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.subs, id)
	}
}
