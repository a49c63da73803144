package memory

import (
	"sync"

	"scholarship-telegram-bot/internal/usecase"
)

type FunnelRepo struct {
	mu     sync.RWMutex
	counts map[usecase.StepID]map[int64]struct{}
}

func NewFunnelRepo() *FunnelRepo {
	return &FunnelRepo{counts: make(map[usecase.StepID]map[int64]struct{})}
}

func (r *FunnelRepo) Hit(stage usecase.StepID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.counts[stage]
	if !ok {
		m = make(map[int64]struct{})
		r.counts[stage] = m
	}
	m[userID] = struct{}{}
	return nil
}

func (r *FunnelRepo) Counts() (map[usecase.StepID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[usecase.StepID]int, len(r.counts))
	for s, set := range r.counts {
		out[s] = len(set)
	}
	return out, nil
}
