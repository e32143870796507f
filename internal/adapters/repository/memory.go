package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/metrics"
)

// MemoryWeightStore keeps weight vectors in a map.
type MemoryWeightStore struct {
	mu      sync.RWMutex
	weights map[string]model.Weights
}

// NewMemoryWeightStore creates an empty store.
func NewMemoryWeightStore() *MemoryWeightStore {
	return &MemoryWeightStore{weights: make(map[string]model.Weights)}
}

// Get implements WeightStore.
func (s *MemoryWeightStore) Get(_ context.Context, gigID string) (model.Weights, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.weights[gigID]
	if !ok {
		return model.Weights{}, fmt.Errorf("weights for gig %s: %w", gigID, model.ErrNotFound)
	}
	return w, nil
}

// Put implements WeightStore.
func (s *MemoryWeightStore) Put(_ context.Context, gigID string, w model.Weights) (model.Weights, error) {
	if gigID == "" {
		return model.Weights{}, ErrEmptyKey
	}
	s.mu.Lock()
	s.weights[gigID] = w
	n := len(s.weights)
	s.mu.Unlock()
	metrics.UpdateWeightsTotal(n)
	return w, nil
}

// Delete implements WeightStore.
func (s *MemoryWeightStore) Delete(_ context.Context, gigID string) error {
	s.mu.Lock()
	delete(s.weights, gigID)
	n := len(s.weights)
	s.mu.Unlock()
	metrics.UpdateWeightsTotal(n)
	return nil
}

// Count implements WeightStore.
func (s *MemoryWeightStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.weights), nil
}

type pairKey struct {
	gigID, agentID string
}

// MemoryEngagementStore keeps engagements in a map with a unique pair index.
type MemoryEngagementStore struct {
	mu     sync.RWMutex
	byID   map[string]engagement.Engagement
	byPair map[pairKey]string
}

// NewMemoryEngagementStore creates an empty store.
func NewMemoryEngagementStore() *MemoryEngagementStore {
	return &MemoryEngagementStore{
		byID:   make(map[string]engagement.Engagement),
		byPair: make(map[pairKey]string),
	}
}

// Insert implements engagement.Store.
func (s *MemoryEngagementStore) Insert(_ context.Context, e engagement.Engagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{e.GigID, e.AgentID}
	if _, exists := s.byPair[key]; exists {
		return engagement.ErrDuplicateRelationship
	}
	if _, exists := s.byID[e.ID]; exists {
		return fmt.Errorf("engagement id %s already used", e.ID)
	}
	s.byID[e.ID] = e
	s.byPair[key] = e.ID
	return nil
}

// Get implements engagement.Store.
func (s *MemoryEngagementStore) Get(_ context.Context, id string) (engagement.Engagement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	return e, nil
}

// UpdateStatus implements engagement.Store.
func (s *MemoryEngagementStore) UpdateStatus(_ context.Context, id string, from, to engagement.Status, at time.Time) (engagement.Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	if e.Status != from {
		return engagement.Engagement{}, engagement.ErrStatusConflict
	}
	e.Status = to
	e.UpdatedAt = at
	s.byID[id] = e
	return e, nil
}

// UpdateNotes implements engagement.Store.
func (s *MemoryEngagementStore) UpdateNotes(_ context.Context, id, notes string, at time.Time) (engagement.Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return engagement.Engagement{}, fmt.Errorf("engagement %s: %w", id, model.ErrNotFound)
	}
	e.Notes = notes
	e.UpdatedAt = at
	s.byID[id] = e
	return e, nil
}

// List implements engagement.Store.
func (s *MemoryEngagementStore) List(_ context.Context, q engagement.Query) ([]engagement.Engagement, error) {
	s.mu.RLock()
	out := make([]engagement.Engagement, 0)
	for _, e := range s.byID {
		if q.GigID != "" && e.GigID != q.GigID {
			continue
		}
		if q.AgentID != "" && e.AgentID != q.AgentID {
			continue
		}
		if !q.Filter.Matches(e.Status) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MemoryAliasStore serves aliases from a fixed map, keyed kind -> alias -> canonical.
type MemoryAliasStore struct {
	aliases map[string]map[string]string
}

// NewMemoryAliasStore copies aliases with lowercased keys.
func NewMemoryAliasStore(aliases map[string]map[string]string) *MemoryAliasStore {
	s := &MemoryAliasStore{aliases: make(map[string]map[string]string, len(aliases))}
	for kind, m := range aliases {
		inner := make(map[string]string, len(m))
		for alias, canonical := range m {
			inner[strings.ToLower(strings.TrimSpace(alias))] = canonical
		}
		s.aliases[strings.ToLower(kind)] = inner
	}
	return s
}

// Lookup implements AliasStore.
func (s *MemoryAliasStore) Lookup(_ context.Context, kind, alias string) (string, error) {
	if c, ok := s.aliases[strings.ToLower(kind)][strings.ToLower(strings.TrimSpace(alias))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("alias %s/%s: %w", kind, alias, model.ErrNotFound)
}
