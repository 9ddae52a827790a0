package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	checkpoints map[string]Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.checkpoints = make(map[string]Checkpoint)
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, c Checkpoint) (Checkpoint, error) {
	c = prepare(c)
	params, err := copyParams(c.Params)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("encode checkpoint %s: %w", c.ID, err)
	}
	c.Params = params

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return Checkpoint{}, ErrNotInitialized
	}

	s.checkpoints[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, id string) (Checkpoint, bool, error) {
	s.mu.RLock()
	c, ok := s.checkpoints[id]
	initialized := s.initialized
	s.mu.RUnlock()

	if !initialized {
		return Checkpoint{}, false, ErrNotInitialized
	}
	if !ok {
		return Checkpoint{}, false, nil
	}
	return s.copyCheckpoint(c)
}

func (s *MemoryStore) LatestCheckpoint(ctx context.Context, net string) (Checkpoint, bool, error) {
	checkpoints, err := s.ListCheckpoints(ctx, net)
	if err != nil || len(checkpoints) == 0 {
		return Checkpoint{}, false, err
	}
	return checkpoints[len(checkpoints)-1], true, nil
}

func (s *MemoryStore) ListCheckpoints(_ context.Context, net string) ([]Checkpoint, error) {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	var matched []Checkpoint
	for _, c := range s.checkpoints {
		if c.Network == net {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Step != matched[j].Step {
			return matched[i].Step < matched[j].Step
		}
		return matched[i].Created.Before(matched[j].Created)
	})

	for i := range matched {
		c, _, err := s.copyCheckpoint(matched[i])
		if err != nil {
			return nil, err
		}
		matched[i] = c
	}
	return matched, nil
}

func (s *MemoryStore) copyCheckpoint(c Checkpoint) (Checkpoint, bool, error) {
	params, err := copyParams(c.Params)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", c.ID, err)
	}
	c.Params = params
	return c, true, nil
}
