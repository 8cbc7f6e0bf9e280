// Package store owns the single shared document that holds all per-user
// state. Every mutation runs as load → mutate → rewrite of the whole
// document; one process-wide mutex serializes writers so concurrent requests
// cannot silently drop each other's updates.
package store

import (
	"encoding/json"
	"sync"

	"github.com/mossline/wellspring-server/internal/apperr"
)

// Backend persists the serialized document as one blob.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Close() error
}

// Store wraps a backend with an in-memory copy of the document and a mutex.
type Store struct {
	mu      sync.Mutex
	backend Backend
	doc     *Document
}

// Open loads the document from the backend. A missing or empty blob yields a
// fresh document.
func Open(backend Backend) (*Store, error) {
	data, err := backend.Load()
	if err != nil {
		return nil, apperr.Persistencef("loading document: %v", err)
	}

	doc := NewDocument()
	if len(data) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, apperr.Persistencef("parsing document: %v", err)
		}
		doc.normalize()
	}

	return &Store{backend: backend, doc: doc}, nil
}

// View runs fn with read access to the document. The document must not be
// mutated or retained by fn.
func (s *Store) View(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// Update runs fn against the document and rewrites the whole blob on success.
// If fn returns an error the document may have been partially mutated in
// memory; callers mutate last, after all lookups succeed.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return apperr.Persistencef("encoding document: %v", err)
	}
	if err := s.backend.Save(data); err != nil {
		return apperr.Persistencef("writing document: %v", err)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
