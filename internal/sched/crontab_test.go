package sched

import (
	"strings"
	"testing"
)

// fakeRunner is an in-memory crontab.
type fakeRunner struct {
	content string
}

func (f *fakeRunner) ReadCrontab() (string, error)      { return f.content, nil }
func (f *fakeRunner) WriteCrontab(content string) error { f.content = content; return nil }

func TestCrontabScheduler_Validate(t *testing.T) {
	t.Parallel()
	s := NewCrontabScheduler(&fakeRunner{})

	tests := []struct {
		pattern string
		wantErr bool
	}{
		{pattern: "0 3 * * *", wantErr: false},
		{pattern: "*/15 * * * 1-5", wantErr: false},
		{pattern: "61 * * * *", wantErr: true},
		{pattern: "* * * *", wantErr: true},
		{pattern: "not a pattern", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := s.Validate(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
		})
	}
}

func TestCrontabScheduler_RegisterDeregister(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{content: "0 0 * * * /usr/bin/unrelated\n"}
	s := NewCrontabScheduler(runner)

	if err := s.Register("tag-1", "/usr/bin/backpy backup create demo", "0 3 * * *"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	registered, err := s.IsRegistered("tag-1")
	if err != nil {
		t.Fatalf("IsRegistered() error = %v", err)
	}
	if !registered {
		t.Error("IsRegistered() = false after Register, want true")
	}
	if !strings.Contains(runner.content, "/usr/bin/unrelated") {
		t.Error("unrelated crontab line was removed")
	}

	if err := s.Deregister("tag-1"); err != nil {
		t.Fatalf("Deregister() error = %v", err)
	}
	registered, err = s.IsRegistered("tag-1")
	if err != nil {
		t.Fatalf("IsRegistered() error = %v", err)
	}
	if registered {
		t.Error("IsRegistered() = true after Deregister, want false")
	}
	if !strings.Contains(runner.content, "/usr/bin/unrelated") {
		t.Error("unrelated crontab line was removed on Deregister")
	}
}

func TestCrontabScheduler_RegisterReplacesExistingTag(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s := NewCrontabScheduler(runner)

	if err := s.Register("tag-1", "/usr/bin/backpy backup create demo", "0 3 * * *"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register("tag-1", "/usr/bin/backpy backup create demo", "30 4 * * *"); err != nil {
		t.Fatalf("second Register() error = %v", err)
	}

	if got := strings.Count(runner.content, "tag-1"); got != 1 {
		t.Errorf("crontab contains %d lines for the tag, want 1:\n%s", got, runner.content)
	}
	if !strings.Contains(runner.content, "30 4 * * *") {
		t.Errorf("crontab does not contain the replacement pattern:\n%s", runner.content)
	}
}

func TestCrontabScheduler_RegisterRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{content: "0 0 * * * /usr/bin/unrelated\n"}
	s := NewCrontabScheduler(runner)

	if err := s.Register("tag-1", "/usr/bin/backpy", "bad pattern"); err == nil {
		t.Fatal("Register() with invalid pattern should return error")
	}
	if runner.content != "0 0 * * * /usr/bin/unrelated\n" {
		t.Error("crontab was modified despite invalid pattern")
	}
}

func TestCrontabScheduler_DeregisterUnknownTag(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{content: "0 0 * * * /usr/bin/unrelated\n"}
	s := NewCrontabScheduler(runner)

	if err := s.Deregister("missing"); err != nil {
		t.Fatalf("Deregister() error = %v", err)
	}
	if !strings.Contains(runner.content, "/usr/bin/unrelated") {
		t.Error("unrelated crontab line was removed")
	}
}
