// Package sched registers backup schedules with the user's crontab.
// Managed entries are tagged with the schedule UUID so they can be found
// and removed without touching unrelated crontab lines.
package sched

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/tgross03/backpy/internal/core"
)

const managedMarker = "MANAGED BY BACKPY"

// CommandRunner executes crontab commands. It exists so tests can run
// against an in-memory crontab.
type CommandRunner interface {
	// ReadCrontab returns the current crontab content. A missing crontab
	// yields an empty string, not an error.
	ReadCrontab() (string, error)
	// WriteCrontab replaces the entire crontab with content.
	WriteCrontab(content string) error
}

// ExecRunner drives the real crontab binary.
type ExecRunner struct{}

var _ CommandRunner = (*ExecRunner)(nil)

func (ExecRunner) ReadCrontab() (string, error) {
	out, err := exec.Command("crontab", "-l").CombinedOutput()
	if err != nil {
		// crontab -l exits nonzero when the user has no crontab yet.
		if strings.Contains(string(out), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("reading crontab: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

func (ExecRunner) WriteCrontab(content string) error {
	cmd := exec.Command("crontab", "-")
	cmd.Stdin = strings.NewReader(content)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("writing crontab: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// CrontabScheduler implements core.Scheduler against a CommandRunner.
type CrontabScheduler struct {
	runner CommandRunner
	parser cron.Parser
}

var _ core.Scheduler = (*CrontabScheduler)(nil)

// NewCrontabScheduler creates a scheduler backed by the given runner.
func NewCrontabScheduler(runner CommandRunner) *CrontabScheduler {
	return &CrontabScheduler{
		runner: runner,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Validate checks that pattern is a five-field cron expression.
func (s *CrontabScheduler) Validate(pattern string) error {
	if _, err := s.parser.Parse(pattern); err != nil {
		return &core.InvalidScheduleError{ID: pattern, Reason: err.Error()}
	}
	return nil
}

// Register adds a managed crontab line for tag. Registering an already
// registered tag replaces its line.
func (s *CrontabScheduler) Register(tag, command, pattern string) error {
	if err := s.Validate(pattern); err != nil {
		return err
	}

	content, err := s.runner.ReadCrontab()
	if err != nil {
		return err
	}

	lines := withoutTag(content, tag)
	lines = append(lines, fmt.Sprintf("%s %s # %s (%s)", pattern, command, tag, managedMarker))
	return s.runner.WriteCrontab(strings.Join(lines, "\n") + "\n")
}

// Deregister removes the managed crontab line for tag. Deregistering an
// unknown tag is a no-op.
func (s *CrontabScheduler) Deregister(tag string) error {
	content, err := s.runner.ReadCrontab()
	if err != nil {
		return err
	}

	lines := withoutTag(content, tag)
	if len(lines) == 0 {
		return s.runner.WriteCrontab("")
	}
	return s.runner.WriteCrontab(strings.Join(lines, "\n") + "\n")
}

// IsRegistered reports whether a managed line for tag exists.
func (s *CrontabScheduler) IsRegistered(tag string) (bool, error) {
	content, err := s.runner.ReadCrontab()
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(content, "\n") {
		if isManagedLine(line, tag) {
			return true, nil
		}
	}
	return false, nil
}

// withoutTag returns the crontab lines with the managed line for tag (and
// trailing blank lines) removed.
func withoutTag(content, tag string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if line == "" && len(lines) == 0 {
			continue
		}
		if isManagedLine(line, tag) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isManagedLine(line, tag string) bool {
	return strings.Contains(line, managedMarker) && strings.Contains(line, "# "+tag+" ")
}
