package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tgross03/backpy/internal/core"
)

// FakeScheduler records registrations in memory. Patterns with exactly five
// fields validate; everything else is rejected.
type FakeScheduler struct {
	mu      sync.Mutex
	entries map[string]string // tag -> "pattern command"
}

var _ core.Scheduler = (*FakeScheduler)(nil)

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{entries: make(map[string]string)}
}

func (s *FakeScheduler) Validate(pattern string) error {
	if len(strings.Fields(pattern)) != 5 {
		return &core.InvalidScheduleError{ID: pattern, Reason: "expected five cron fields"}
	}
	return nil
}

func (s *FakeScheduler) Register(tag, command, pattern string) error {
	if err := s.Validate(pattern); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tag] = fmt.Sprintf("%s %s", pattern, command)
	return nil
}

func (s *FakeScheduler) Deregister(tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tag)
	return nil
}

func (s *FakeScheduler) IsRegistered(tag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[tag]
	return ok, nil
}

// Entry returns the registered line for tag, empty when absent.
func (s *FakeScheduler) Entry(tag string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[tag]
}
