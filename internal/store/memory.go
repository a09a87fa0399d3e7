package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore is an in-memory DocumentStore used in tests and local
// development. Values round-trip through JSON so type behavior matches
// the JSONB-backed store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]interface{} // collection -> id -> data
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]map[string]interface{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[collection][id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(data), nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, partial map[string]interface{}, merge bool) error {
	normalized, err := normalizeDoc(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]interface{})
	}
	if existing, ok := s.docs[collection][id]; ok && merge {
		s.docs[collection][id] = DeepMerge(existing, normalized)
		return nil
	}
	s.docs[collection][id] = normalized
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, fieldPath, equals string) (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]map[string]interface{})
	for id, data := range s.docs[collection] {
		if v, ok := lookupPath(data, fieldPath); ok && v == equals {
			results[id] = cloneDoc(data)
		}
	}
	return results, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]map[string]interface{}, len(s.docs[collection]))
	for id, data := range s.docs[collection] {
		results[id] = cloneDoc(data)
	}
	return results, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[collection], id)
	return nil
}

func lookupPath(data map[string]interface{}, fieldPath string) (string, bool) {
	parts := strings.Split(fieldPath, ".")
	cur := interface{}(data)
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		cur, ok = m[p]
		if !ok {
			return "", false
		}
	}
	str, ok := cur.(string)
	return str, ok
}

// normalizeDoc forces values through JSON so stored types (float64,
// map[string]interface{}) match what the JSONB store returns.
func normalizeDoc(data map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneDoc(data map[string]interface{}) map[string]interface{} {
	out, err := normalizeDoc(data)
	if err != nil {
		// data came through normalizeDoc on write, so this cannot fail
		return data
	}
	return out
}
