package records

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record with this fingerprint already exists")
)

type Store interface {
	// Put stores r. A record whose fingerprint is already stored is rejected
	// with ErrDuplicate and the store is left unchanged.
	Put(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns records newest first. An empty userID lists every user and
	// a non-positive limit returns everything.
	List(ctx context.Context, userID string, limit int) ([]*Record, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error)
}

type MemoryStore struct {
	mu            sync.RWMutex
	byID          map[string]*Record
	byFingerprint map[string]string
	order         []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:          make(map[string]*Record),
		byFingerprint: make(map[string]string),
	}
}

func (s *MemoryStore) Put(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Fingerprint != "" {
		if _, ok := s.byFingerprint[r.Fingerprint]; ok {
			return ErrDuplicate
		}
	}
	if _, ok := s.byID[r.ID]; ok {
		return ErrDuplicate
	}
	stored := *r
	s.byID[r.ID] = &stored
	if r.Fingerprint != "" {
		s.byFingerprint[r.Fingerprint] = r.ID
	}
	s.order = append(s.order, r.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := *r
	return &found, nil
}

func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*Record, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.byID[s.order[i]]
		if userID != "" && r.UserID != userID {
			continue
		}
		found := *r
		list = append(list, &found)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStore) FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	s.mu.RLock()
	id, ok := s.byFingerprint[fingerprint]
	s.mu.RUnlock()
	if !ok || fingerprint == "" {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}
