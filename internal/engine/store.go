package engine

import (
	"sync"

	"github.com/edvin/mirrord/internal/model"
)

// StateStore maps pair IDs to live status. The execution pipeline is the
// only writer; the HTTP API, the status stream, and the notifier read
// concurrently. Writes are atomic per pair and readers always get a copy.
type StateStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.PairStatus
}

// StatusEntry pairs an ID with its status for ordered listings.
type StatusEntry struct {
	PairID string           `json:"pair_id"`
	Status model.PairStatus `json:"status"`
}

// NewStateStore creates an empty store; call Reset with the configured pairs
// before use.
func NewStateStore() *StateStore {
	return &StateStore{byID: make(map[string]model.PairStatus)}
}

// Reset rebuilds the store from a configuration snapshot. Pairs that survive
// a reload keep their status and counters; new pairs start Pending with zero
// counters; removed pairs are dropped.
func (s *StateStore) Reset(pairs []model.BackupPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := make([]string, 0, len(pairs))
	byID := make(map[string]model.PairStatus, len(pairs))
	for _, pair := range pairs {
		order = append(order, pair.ID)
		if st, ok := s.byID[pair.ID]; ok {
			byID[pair.ID] = st
		} else {
			byID[pair.ID] = model.PairStatus{State: model.StatePending}
		}
	}
	s.order = order
	s.byID = byID
}

// Status returns the status for one pair.
func (s *StateStore) Status(id string) (model.PairStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[id]
	return st, ok
}

// List returns all statuses in configured order.
func (s *StateStore) List() []StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]StatusEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, StatusEntry{PairID: id, Status: s.byID[id]})
	}
	return entries
}

// MarkRunning transitions a pair to Running. Called by the pipeline right
// before the copy tool is invoked.
func (s *StateStore) MarkRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byID[id]
	if !ok {
		return
	}
	st.State = model.StateRunning
	s.byID[id] = st
}

// RecordResult writes a pair's terminal status for this pass and bumps the
// cumulative counters.
func (s *StateStore) RecordResult(id string, res model.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byID[id]
	if !ok {
		return
	}
	st.State = model.StateForOutcome(res.Outcome)
	st.Last = &res
	st.Runs++
	if res.Outcome == model.OutcomeSuccess {
		st.Successes++
	}
	st.LastRun = res.StartedAt
	s.byID[id] = st
}

// RunningCount reports how many pairs are currently Running. The pipeline's
// sequential design keeps this at most 1.
func (s *StateStore) RunningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, st := range s.byID {
		if st.State == model.StateRunning {
			n++
		}
	}
	return n
}
