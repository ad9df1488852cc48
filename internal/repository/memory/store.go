// Package memory is an in-process repository.DocumentStore for local
// development and tests. Data lives only as long as the process.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.Fields
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]domain.Fields)}
}

var _ repository.DocumentStore = (*Store)(nil)

func (s *Store) Create(ctx context.Context, collection string, data domain.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]domain.Fields)
		s.collections[collection] = docs
	}
	docs[id] = domain.Fields{}.Merge(data)
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("get %s document %s: %w", collection, id, domain.ErrNotFound)
	}
	return &repository.Document{ID: id, Data: domain.Fields{}.Merge(data)}, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data domain.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("update %s document %s: %w", collection, id, domain.ErrNotFound)
	}
	s.collections[collection][id] = existing.Merge(data)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return fmt.Errorf("delete %s document %s: %w", collection, id, domain.ErrNotFound)
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []repository.Document
	for id, data := range s.collections[collection] {
		if matchesAll(data, filters) {
			docs = append(docs, repository.Document{ID: id, Data: domain.Fields{}.Merge(data)})
		}
	}
	return docs, nil
}

func matchesAll(data domain.Fields, filters []repository.Filter) bool {
	for _, f := range filters {
		if !matches(data[f.Field], f) {
			return false
		}
	}
	return true
}

func matches(v any, f repository.Filter) bool {
	switch f.Op {
	case repository.OpEq, "":
		return v != nil && fmt.Sprint(v) == fmt.Sprint(f.Value)
	case repository.OpNeq:
		return v == nil || fmt.Sprint(v) != fmt.Sprint(f.Value)
	case repository.OpGte:
		return compare(v, f.Value) >= 0
	}
	return false
}

// compare orders a stored value against a filter value. Missing values
// sort first.
func compare(stored, target any) int {
	if stored == nil {
		return -1
	}
	if t, ok := target.(time.Time); ok {
		st, ok := asTime(stored)
		if !ok {
			return -1
		}
		return st.Compare(t)
	}
	if a, err := strconv.ParseFloat(fmt.Sprint(stored), 64); err == nil {
		if b, err := strconv.ParseFloat(fmt.Sprint(target), 64); err == nil {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			}
			return 0
		}
	}
	a, b := fmt.Sprint(stored), fmt.Sprint(target)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(time.RFC3339, x)
		return t, err == nil
	}
	return time.Time{}, false
}
