// Package staging tracks which entries of the active stream are selected for export.
package staging

import (
	"sort"
	"sync"

	"github.com/kolam-ikan/kolam/internal/model"
)

// Selector is a set of staged entry ids. The zero value is ready to use and it
// is safe for concurrent use.
type Selector struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSelector returns a selector holding ids.
func NewSelector(ids ...string) *Selector {
	s := &Selector{}
	s.SetAll(ids)
	return s
}

func (s *Selector) Stage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.ids[id] = struct{}{}
}

func (s *Selector) Unstage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// Toggle flips membership of id and reports whether it is now staged.
func (s *Selector) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selector) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

// SetAll replaces the selection with ids.
func (s *Selector) SetAll(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Retain drops every staged id that is not in ids, e.g. after entries were deleted.
func (s *Selector) Retain(ids []string) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

func (s *Selector) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the staged ids in lexical order. Callers that need sequence
// order resolve the entries and sort them.
func (s *Selector) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Partition splits the staged members of entries by role. Bulk profile
// operations apply only to user entries and report the assistant ones as ignored.
func (s *Selector) Partition(entries []model.Entry) (user, assistant []model.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range entries {
		if _, ok := s.ids[e.ID]; !ok {
			continue
		}
		if e.Role == model.RoleAssistant {
			assistant = append(assistant, e)
		} else {
			user = append(user, e)
		}
	}
	return user, assistant
}

// Staged returns the staged members of entries ordered by sequence id.
func (s *Selector) Staged(entries []model.Entry) []model.Entry {
	s.mu.RLock()
	out := make([]model.Entry, 0, len(s.ids))
	for _, e := range entries {
		if _, ok := s.ids[e.ID]; ok {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out
}

func (s *Selector) ensure() {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
}
