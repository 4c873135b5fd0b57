package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Schedule describes a recurring backup: which space to back up, with which
// filters and location, on which cron pattern. Whether a schedule is active
// is not persisted here; the scheduler's registration state is the truth.
type Schedule struct {
	UUID     string
	Name     string
	SpaceID  string
	Pattern  string
	Location Location
	Include  []string
	Exclude  []string
}

type scheduleDoc struct {
	UUID     string   `toml:"uuid"`
	Name     string   `toml:"name"`
	Space    string   `toml:"backup_space"`
	Pattern  string   `toml:"pattern"`
	Location string   `toml:"location"`
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
}

// ScheduleParams describes a schedule to create.
type ScheduleParams struct {
	Name     string
	SpaceRef string
	Pattern  string
	Location Location
	Include  []string
	Exclude  []string

	// Activate registers the schedule with the system scheduler right away.
	Activate bool
}

// CreateSchedule validates and persists a new schedule.
func (s *Service) CreateSchedule(params ScheduleParams) (*Schedule, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("schedule name must not be empty")
	}
	if err := s.sched.Validate(params.Pattern); err != nil {
		return nil, err
	}

	space, err := s.ResolveSpace(params.SpaceRef)
	if err != nil {
		return nil, err
	}

	loc := params.Location
	if loc == "" {
		loc = LocationLocal
	}
	if loc.IncludesRemote() && !space.HasRemote() {
		return nil, ErrNoRemote
	}

	schedule := &Schedule{
		UUID:     s.idgen.New(),
		Name:     params.Name,
		SpaceID:  space.UUID,
		Pattern:  params.Pattern,
		Location: loc,
		Include:  params.Include,
		Exclude:  params.Exclude,
	}
	if err := s.saveSchedule(schedule); err != nil {
		return nil, err
	}

	if params.Activate {
		if err := s.ActivateSchedule(schedule); err != nil {
			return schedule, err
		}
	}
	s.logger.Info("created schedule", "name", schedule.Name, "uuid", schedule.UUID, "pattern", schedule.Pattern)
	return schedule, nil
}

func (s *Service) saveSchedule(schedule *Schedule) error {
	if err := os.MkdirAll(s.schedulesDir, 0700); err != nil {
		return fmt.Errorf("creating schedules directory: %w", err)
	}

	doc := scheduleDoc{
		UUID:     schedule.UUID,
		Name:     schedule.Name,
		Space:    schedule.SpaceID,
		Pattern:  schedule.Pattern,
		Location: string(schedule.Location),
		Include:  schedule.Include,
		Exclude:  schedule.Exclude,
	}

	path := filepath.Join(s.schedulesDir, schedule.UUID+".toml")
	tmp, err := os.CreateTemp(s.schedulesDir, ".schedule-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding schedule: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing schedule: %w", err)
	}
	return nil
}

// LoadSchedule loads the schedule with the given UUID.
func (s *Service) LoadSchedule(id string) (*Schedule, error) {
	return s.loadScheduleFile(filepath.Join(s.schedulesDir, id+".toml"))
}

// ResolveSchedule loads a schedule by UUID or, failing that, by name.
func (s *Service) ResolveSchedule(ref string) (*Schedule, error) {
	if schedule, err := s.LoadSchedule(ref); err == nil {
		return schedule, nil
	}
	schedules, err := s.ListSchedules()
	if err != nil {
		return nil, err
	}
	for _, schedule := range schedules {
		if schedule.Name == ref {
			return schedule, nil
		}
	}
	return nil, &NotFoundError{Kind: "schedule", ID: ref}
}

// ListSchedules returns all readable schedules sorted by name. Corrupt
// schedule files are skipped with a warning.
func (s *Service) ListSchedules() ([]*Schedule, error) {
	entries, err := os.ReadDir(s.schedulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading schedules directory: %w", err)
	}

	var schedules []*Schedule
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		schedule, err := s.loadScheduleFile(filepath.Join(s.schedulesDir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable schedule", "file", entry.Name(), "error", err)
			continue
		}
		schedules = append(schedules, schedule)
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].Name < schedules[j].Name })
	return schedules, nil
}

// SchedulesForSpace returns the schedules targeting the given space.
func (s *Service) SchedulesForSpace(spaceID string) ([]*Schedule, error) {
	schedules, err := s.ListSchedules()
	if err != nil {
		return nil, err
	}
	var matching []*Schedule
	for _, schedule := range schedules {
		if schedule.SpaceID == spaceID {
			matching = append(matching, schedule)
		}
	}
	return matching, nil
}

func (s *Service) loadScheduleFile(path string) (*Schedule, error) {
	id := strings.TrimSuffix(filepath.Base(path), ".toml")

	var doc scheduleDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "schedule", ID: id}
		}
		return nil, &InvalidScheduleError{ID: id, Reason: err.Error()}
	}

	loc, err := ParseLocation(doc.Location)
	if err != nil {
		return nil, &InvalidScheduleError{ID: id, Reason: err.Error()}
	}

	return &Schedule{
		UUID:     doc.UUID,
		Name:     doc.Name,
		SpaceID:  doc.Space,
		Pattern:  doc.Pattern,
		Location: loc,
		Include:  doc.Include,
		Exclude:  doc.Exclude,
	}, nil
}

// ActivateSchedule registers the schedule with the system scheduler.
// Activating an active schedule refreshes its registration.
func (s *Service) ActivateSchedule(schedule *Schedule) error {
	return s.sched.Register(schedule.UUID, s.scheduleCommand(schedule), schedule.Pattern)
}

// DeactivateSchedule removes the schedule's registration. Deactivating an
// inactive schedule is a no-op.
func (s *Service) DeactivateSchedule(schedule *Schedule) error {
	return s.sched.Deregister(schedule.UUID)
}

// IsScheduleActive reports whether the schedule is currently registered.
func (s *Service) IsScheduleActive(schedule *Schedule) (bool, error) {
	return s.sched.IsRegistered(schedule.UUID)
}

// DeleteSchedule deactivates the schedule and removes its descriptor.
func (s *Service) DeleteSchedule(schedule *Schedule) error {
	if err := s.DeactivateSchedule(schedule); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.schedulesDir, schedule.UUID+".toml")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing schedule: %w", err)
	}
	s.logger.Info("deleted schedule", "name", schedule.Name, "uuid", schedule.UUID)
	return nil
}

// scheduleCommand builds the CLI invocation the scheduler runs.
func (s *Service) scheduleCommand(schedule *Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s backup create %s --location %s", s.execPath, schedule.SpaceID, schedule.Location)
	for _, pattern := range schedule.Include {
		fmt.Fprintf(&b, " --include %q", pattern)
	}
	for _, pattern := range schedule.Exclude {
		fmt.Fprintf(&b, " --exclude %q", pattern)
	}
	return b.String()
}
