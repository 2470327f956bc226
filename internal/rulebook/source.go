package rulebook

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Source is a scheme's uploaded rulebook: the raw extracted text plus
// origin metadata. At most one source exists per scheme; uploading a new
// one replaces the prior source atomically.
type Source struct {
	Scheme     string    `json:"scheme"`
	Text       string    `json:"-"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	Pages      int       `json:"pages"`
	TextLength int       `json:"text_length"`
	Version    string    `json:"version"`
	Summary    string    `json:"summary,omitempty"`
}

// Store holds the per-scheme rulebook sources. Last write wins; readers
// never observe a partially replaced source.
type Store struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewStore() *Store {
	return &Store{sources: make(map[string]Source)}
}

func (s *Store) Put(source Source) {
	scheme := strings.ToUpper(source.Scheme)
	source.Scheme = scheme

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[scheme] = source
}

func (s *Store) Get(scheme string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[strings.ToUpper(scheme)]
	return source, ok
}

func (s *Store) Delete(scheme string) bool {
	scheme = strings.ToUpper(scheme)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[scheme]
	delete(s.sources, scheme)
	return ok
}

// List returns all stored sources sorted by scheme.
func (s *Store) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Source, 0, len(s.sources))
	for _, source := range s.sources {
		out = append(out, source)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scheme < out[j].Scheme })
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}
