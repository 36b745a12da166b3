package pipeline

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// DocumentStore is a thread-safe in-memory document registry with TTL
// eviction and a size cap. The least recently used document is evicted when
// the cap is reached.
type DocumentStore struct {
	mu     sync.Mutex
	docs   map[string]*Document
	byHash map[string]string
	ttl    time.Duration
	max    int
}

func NewDocumentStore(ttl time.Duration, maxDocs int) *DocumentStore {
	return &DocumentStore{
		docs:   make(map[string]*Document),
		byHash: make(map[string]string),
		ttl:    ttl,
		max:    maxDocs,
	}
}

// Put registers doc, evicting the least recently used document if the store
// is full. It returns the ID of the evicted document, if any.
func (s *DocumentStore) Put(doc *Document) (evicted string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok && s.max > 0 && len(s.docs) >= s.max {
		var oldest *Document
		for _, d := range s.docs {
			if oldest == nil || d.lastAccess.Before(oldest.lastAccess) {
				oldest = d
			}
		}
		s.remove(oldest)
		evicted = oldest.ID
	}
	doc.lastAccess = time.Now()
	s.docs[doc.ID] = doc
	if doc.ContentHash != "" {
		s.byHash[doc.ContentHash] = doc.ID
	}
	return evicted
}

// Get returns a document by ID and marks it as recently used.
func (s *DocumentStore) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.docs[id]
	if d != nil {
		d.lastAccess = time.Now()
	}
	return d
}

// FindByHash returns the document imported from content with hash.
func (s *DocumentStore) FindByHash(hash string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[s.byHash[hash]]
}

// Delete removes a document. It reports whether the document existed.
func (s *DocumentStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if ok {
		s.remove(d)
	}
	return ok
}

// List returns every document, oldest first.
func (s *DocumentStore) List() []*Document {
	s.mu.Lock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	s.mu.Unlock()
	slices.SortFunc(docs, func(a, b *Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return docs
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Cleanup removes documents not accessed within the TTL and returns how many
// were dropped.
func (s *DocumentStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for _, d := range s.docs {
		if now.Sub(d.lastAccess) > s.ttl {
			s.remove(d)
			n++
		}
	}
	return n
}

func (s *DocumentStore) remove(d *Document) {
	delete(s.docs, d.ID)
	if s.byHash[d.ContentHash] == d.ID {
		delete(s.byHash, d.ContentHash)
	}
}
