package web

import (
	"sync"
	"time"

	"github.com/hazyhaar/extractlab/docpipe"
	"github.com/hazyhaar/extractlab/idgen"
)

// entry is one processed upload kept for display and download.
type entry struct {
	ID       string
	FileName string
	MIMEType string
	Size     int
	Library  docpipe.Descriptor
	Result   *docpipe.Result

	created time.Time
}

// resultStore keeps recent results in memory. Entries expire after ttl and
// the oldest are evicted once max is reached.
type resultStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	items map[string]*entry
	order []string // insertion order, oldest first

	newID idgen.Generator
	now   func() time.Time
}

func newResultStore(ttl time.Duration, max int) *resultStore {
	return &resultStore{
		ttl:   ttl,
		max:   max,
		items: make(map[string]*entry),
		newID: idgen.Prefixed("res_", idgen.NanoID(16)),
		now:   time.Now,
	}
}

// put stores e under a fresh id and returns it.
func (s *resultStore) put(e *entry) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	for len(s.order) >= s.max {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	e.ID = s.newID()
	e.created = s.now()
	s.items[e.ID] = e
	s.order = append(s.order, e.ID)
	return e
}

func (s *resultStore) get(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok || s.expired(e) {
		return nil, false
	}
	return e, true
}

func (s *resultStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *resultStore) expired(e *entry) bool {
	return s.now().Sub(e.created) > s.ttl
}

// evictLocked drops expired entries. Entries are in insertion order, so
// it stops at the first live one.
func (s *resultStore) evictLocked() {
	n := 0
	for _, id := range s.order {
		if !s.expired(s.items[id]) {
			break
		}
		delete(s.items, id)
		n++
	}
	s.order = s.order[n:]
}
