package testutil

import (
	"sync"
	"time"

	"github.com/tgross03/backpy/internal/core"
)

// MemoryRemoteStore keeps remote descriptors in memory.
type MemoryRemoteStore struct {
	mu      sync.Mutex
	remotes map[string]*core.Remote
}

var _ core.RemoteStore = (*MemoryRemoteStore)(nil)

func NewMemoryRemoteStore(remotes ...*core.Remote) *MemoryRemoteStore {
	s := &MemoryRemoteStore{remotes: make(map[string]*core.Remote)}
	for _, r := range remotes {
		s.remotes[r.UUID] = r
	}
	return s
}

func (s *MemoryRemoteStore) Load(id string) (*core.Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.remotes[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "remote", ID: id}
	}
	return r, nil
}

func (s *MemoryRemoteStore) LoadByName(name string) (*core.Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.remotes {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, &core.NotFoundError{Kind: "remote", ID: name}
}

func (s *MemoryRemoteStore) List() ([]*core.Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remotes []*core.Remote
	for _, r := range s.remotes {
		remotes = append(remotes, r)
	}
	return remotes, nil
}

func (s *MemoryRemoteStore) Save(r *core.Remote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remotes[r.UUID] = r
	return nil
}

func (s *MemoryRemoteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.remotes[id]; !ok {
		return &core.NotFoundError{Kind: "remote", ID: id}
	}
	delete(s.remotes, id)
	return nil
}

// MemoryJournal records operations in memory.
type MemoryJournal struct {
	mu     sync.Mutex
	nextID int64
	ops    []*core.Operation
}

var _ core.Journal = (*MemoryJournal)(nil)

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{nextID: 1}
}

func (j *MemoryJournal) Record(op *core.Operation) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	stored := *op
	stored.ID = j.nextID
	stored.Status = "running"
	j.nextID++
	j.ops = append(j.ops, &stored)
	return stored.ID, nil
}

func (j *MemoryJournal) Finish(id int64, status string, finishedAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, op := range j.ops {
		if op.ID == id {
			op.Status = status
			op.FinishedAt = finishedAt
			return nil
		}
	}
	return &core.NotFoundError{Kind: "operation", ID: ""}
}

func (j *MemoryJournal) Recent(limit int) ([]*core.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var ops []*core.Operation
	for i := len(j.ops) - 1; i >= 0 && len(ops) < limit; i-- {
		ops = append(ops, j.ops[i])
	}
	return ops, nil
}

func (j *MemoryJournal) Close() error { return nil }
