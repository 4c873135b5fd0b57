// Package core implements the backup lifecycle: spaces, backups, remotes,
// schedules, retention and restoration. All side effects go through the
// interfaces in this package so the logic stays testable.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Deps carries the collaborators a Service needs. Logger, Clock and IDGen
// may be nil; production defaults are used then.
type Deps struct {
	Codec     ArchiveCodec
	Dialer    RemoteDialer
	Remotes   RemoteStore
	Scheduler Scheduler
	Logger    Logger
	Clock     Clock
	IDGen     IDGenerator

	SpacesDir    string
	SchedulesDir string
	TempDir      string

	// ExecPath is the absolute path of the running binary, used to build
	// scheduled commands.
	ExecPath string
}

// Service orchestrates all backup space operations.
type Service struct {
	codec  ArchiveCodec
	dialer RemoteDialer
	remote RemoteStore
	sched  Scheduler
	logger Logger
	clock  Clock
	idgen  IDGenerator

	spacesDir    string
	schedulesDir string
	tempDir      string
	execPath     string
}

// NewService creates a Service from its dependencies.
func NewService(deps Deps) *Service {
	s := &Service{
		codec:        deps.Codec,
		dialer:       deps.Dialer,
		remote:       deps.Remotes,
		sched:        deps.Scheduler,
		logger:       deps.Logger,
		clock:        deps.Clock,
		idgen:        deps.IDGen,
		spacesDir:    deps.SpacesDir,
		schedulesDir: deps.SchedulesDir,
		tempDir:      deps.TempDir,
		execPath:     deps.ExecPath,
	}
	if s.logger == nil {
		s.logger = NewNopLogger()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.idgen == nil {
		s.idgen = UUIDGenerator{}
	}
	return s
}

// NewID generates an identifier for entities created outside the service,
// such as remotes.
func (s *Service) NewID() string { return s.idgen.New() }

// SpaceParams describes a backup space to create or the edits to apply to
// an existing one.
type SpaceParams struct {
	Name       string
	SourcePath string
	Format     Format
	Level      int
	Include    []string
	Exclude    []string

	MaxBackups   int
	MaxSize      int64
	AutoDeletion bool
	EvictionRule EvictionRule

	// RemoteRef is the UUID or name of the remote to bind, empty for none.
	RemoteRef string
}

// CreateSpace creates and persists a new backup space.
func (s *Service) CreateSpace(params SpaceParams) (*Space, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("backup space name must not be empty")
	}
	if existing, err := s.findSpaceByName(params.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("backup space %q already exists", params.Name)
	}

	info, err := os.Stat(params.SourcePath)
	if err != nil {
		return nil, &NotFoundError{Kind: "source path", ID: params.SourcePath}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", params.SourcePath)
	}

	remoteID := ""
	if params.RemoteRef != "" {
		remote, err := s.ResolveRemote(params.RemoteRef)
		if err != nil {
			return nil, err
		}
		remoteID = remote.UUID
	}

	rule := params.EvictionRule
	if rule == "" {
		rule = EvictOldest
	}

	id := s.idgen.New()
	space := &Space{
		UUID:         id,
		Name:         params.Name,
		Kind:         KindFileSystem,
		SourcePath:   params.SourcePath,
		Format:       params.Format,
		Level:        params.Level,
		Include:      params.Include,
		Exclude:      params.Exclude,
		MaxBackups:   params.MaxBackups,
		MaxSize:      params.MaxSize,
		AutoDeletion: params.AutoDeletion,
		EvictionRule: rule,
		RemoteID:     remoteID,
		dir:          filepath.Join(s.spacesDir, id),
	}
	if err := space.save(); err != nil {
		return nil, err
	}

	s.logger.Info("created backup space", "name", space.Name, "uuid", space.UUID)
	return space, nil
}

// SaveSpace persists in-place edits to a space's configuration.
func (s *Service) SaveSpace(space *Space) error {
	return space.save()
}

// LoadSpace loads the space with the given UUID.
func (s *Service) LoadSpace(id string) (*Space, error) {
	return loadSpaceDir(filepath.Join(s.spacesDir, id))
}

// ResolveSpace loads a space by UUID or, failing that, by name.
func (s *Service) ResolveSpace(ref string) (*Space, error) {
	if _, err := os.Stat(filepath.Join(s.spacesDir, ref)); err == nil {
		return s.LoadSpace(ref)
	}
	space, err := s.findSpaceByName(ref)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, &NotFoundError{Kind: "backup space", ID: ref}
	}
	return space, nil
}

func (s *Service) findSpaceByName(name string) (*Space, error) {
	spaces, err := s.ListSpaces()
	if err != nil {
		return nil, err
	}
	for _, space := range spaces {
		if space.Name == name {
			return space, nil
		}
	}
	return nil, nil
}

// ListSpaces returns all readable spaces sorted by name. Spaces with corrupt
// configuration are skipped with a warning so one bad space does not take
// down the listing.
func (s *Service) ListSpaces() ([]*Space, error) {
	entries, err := os.ReadDir(s.spacesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading spaces directory: %w", err)
	}

	var spaces []*Space
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		space, err := loadSpaceDir(filepath.Join(s.spacesDir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable backup space", "uuid", entry.Name(), "error", err)
			continue
		}
		spaces = append(spaces, space)
	}
	sort.Slice(spaces, func(i, j int) bool { return spaces[i].Name < spaces[j].Name })
	return spaces, nil
}

// DeleteSpace removes the space, its local backups and metadata, its
// schedules, and (best effort) its remote mirror directory.
func (s *Service) DeleteSpace(space *Space) error {
	schedules, err := s.SchedulesForSpace(space.UUID)
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		if err := s.DeleteSchedule(schedule); err != nil {
			return err
		}
	}

	if space.HasRemote() {
		if err := s.removeRemoteMirror(space); err != nil {
			s.logger.Warn("could not remove remote mirror", "space", space.Name, "error", err)
		}
	}

	if err := os.RemoveAll(space.Dir()); err != nil {
		return fmt.Errorf("removing space directory: %w", err)
	}
	s.logger.Info("deleted backup space", "name", space.Name, "uuid", space.UUID)
	return nil
}

// ClearSpace deletes all unlocked backups of the space and returns how many
// were removed. Locked backups survive.
func (s *Service) ClearSpace(space *Space) (int, error) {
	backups, err := s.Backups(space, ListOptions{})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, b := range backups {
		if b.Locked {
			s.logger.Warn("keeping locked backup", "backup", b.UUID)
			continue
		}
		if err := s.DeleteBackup(space, b); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *Service) removeRemoteMirror(space *Space) error {
	remote, err := s.remote.Load(space.RemoteID)
	if err != nil {
		return err
	}
	sess, err := s.dialer.Dial(remote)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.RemoveAll(remote.SpacePath(space.UUID))
}

// ResolveRemote loads a remote by UUID or, failing that, by name.
func (s *Service) ResolveRemote(ref string) (*Remote, error) {
	remote, err := s.remote.Load(ref)
	if err == nil {
		return remote, nil
	}
	return s.remote.LoadByName(ref)
}

// lazySession dials a remote on first use so operations touching only local
// state never open a connection.
type lazySession struct {
	svc    *Service
	space  *Space
	remote *Remote
	sess   RemoteSession
	failed error
}

func (s *Service) lazyFor(space *Space) *lazySession {
	return &lazySession{svc: s, space: space}
}

func (l *lazySession) get() (RemoteSession, error) {
	if l.sess != nil {
		return l.sess, nil
	}
	if l.failed != nil {
		return nil, l.failed
	}
	if !l.space.HasRemote() {
		l.failed = ErrNoRemote
		return nil, l.failed
	}

	remote, err := l.svc.remote.Load(l.space.RemoteID)
	if err != nil {
		l.failed = err
		return nil, err
	}
	sess, err := l.svc.dialer.Dial(remote)
	if err != nil {
		l.failed = err
		return nil, err
	}
	l.remote = remote
	l.sess = sess
	return sess, nil
}

func (l *lazySession) close() {
	if l.sess != nil {
		l.sess.Close()
		l.sess = nil
	}
}

// BackupOptions describes one backup creation request.
type BackupOptions struct {
	Comment  string
	Location Location

	// Lock protects the new backup from eviction and deletion right away.
	Lock bool

	// Include and Exclude override the space's default filter patterns.
	// Leaving both nil applies the space defaults.
	Include []string
	Exclude []string
}

// CreateBackup archives the space's source and stores the result at the
// requested location. The archive digest is computed once at creation and
// verified after every transfer. When a retention limit would be exceeded
// and auto deletion cannot resolve it, the new backup is rolled back and a
// CapacityError returned.
func (s *Service) CreateBackup(space *Space, opts BackupOptions) (*Backup, error) {
	loc := opts.Location
	if loc == "" {
		loc = LocationLocal
	}

	var remote *Remote
	if loc.IncludesRemote() {
		if !space.HasRemote() {
			return nil, ErrNoRemote
		}
		var err error
		remote, err = s.remote.Load(space.RemoteID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(space.SourcePath); err != nil {
		return nil, &NotFoundError{Kind: "source path", ID: space.SourcePath}
	}

	include, exclude := opts.Include, opts.Exclude
	if include == nil && exclude == nil {
		include, exclude = space.Include, space.Exclude
	}

	id := s.idgen.New()
	archivePath, err := s.codec.Compress(space.SourcePath, id, space.Dir(), space.Format, space.Level, include, exclude)
	if err != nil {
		return nil, fmt.Errorf("archiving %s: %w", space.SourcePath, err)
	}

	digest, err := HashFile(archivePath)
	if err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	backup := &Backup{
		UUID:      id,
		SpaceID:   space.UUID,
		Digest:    digest,
		Comment:   opts.Comment,
		CreatedAt: s.clock.Now(),
		Locked:    opts.Lock,
		Include:   include,
		Exclude:   exclude,
		space:     space,
	}
	if loc.IncludesRemote() {
		backup.RemoteID = remote.UUID
	}
	if err := backup.saveMetadata(); err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	if err := s.enforceLimits(space, backup); err != nil {
		s.rollbackBackup(backup)
		return nil, err
	}

	if loc.IncludesRemote() {
		if err := s.mirrorToRemote(backup, remote); err != nil {
			if !loc.IncludesLocal() {
				// A remote-only request that cannot reach the remote has
				// produced nothing worth keeping.
				s.rollbackBackup(backup)
				return nil, err
			}
			s.logger.Warn("remote copy failed, local copy kept", "backup", backup.UUID, "error", err)
			return nil, err
		}
		if !loc.IncludesLocal() {
			if err := os.Remove(archivePath); err != nil {
				return nil, fmt.Errorf("removing local archive after upload: %w", err)
			}
		}
	}

	s.logger.Info("created backup",
		"backup", backup.UUID, "space", space.Name, "location", string(loc), "digest", digest)
	return backup, nil
}

// mirrorToRemote uploads the backup's archive (digest-verified) and its
// metadata document into the remote's space mirror.
func (s *Service) mirrorToRemote(backup *Backup, remote *Remote) error {
	sess, err := s.dialer.Dial(remote)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Mkdir(remote.SpacePath(backup.SpaceID), true); err != nil {
		return err
	}
	if err := uploadVerified(sess, backup.LocalArchivePath(), backup.RemoteArchivePath(remote), backup.Digest, backup.UUID); err != nil {
		return err
	}
	return sess.Upload(backup.MetadataPath(), backup.RemoteMetadataPath(remote))
}

func (s *Service) rollbackBackup(backup *Backup) {
	os.Remove(backup.LocalArchivePath())
	os.Remove(backup.MetadataPath())
}

// ListOptions controls Backups.
type ListOptions struct {
	// SortBySize orders by local archive size instead of creation time.
	// Both orders are descending.
	SortBySize bool
	// UnlockedOnly drops locked backups from the result.
	UnlockedOnly bool
	// Verify recomputes the digest of every present copy, the remote one
	// included, and warns on mismatch.
	Verify bool
}

// Backups lists the space's backups, newest first. Backups with corrupt
// metadata or with no surviving copy are skipped with a warning.
func (s *Service) Backups(space *Space, opts ListOptions) ([]*Backup, error) {
	paths, err := filepath.Glob(filepath.Join(space.Dir(), "*.toml"))
	if err != nil {
		return nil, err
	}

	lazy := s.lazyFor(space)
	defer lazy.close()

	var backups []*Backup
	for _, path := range paths {
		if filepath.Base(path) == "config.toml" {
			continue
		}
		backup, err := loadBackupFile(space, path)
		if err != nil {
			s.logger.Warn("skipping unreadable backup", "path", path, "error", err)
			continue
		}

		if !backup.HasLocal() {
			ok, err := s.remoteCopyExists(lazy, backup)
			if err != nil {
				s.logger.Warn("could not verify remote copy", "backup", backup.UUID, "error", err)
			} else if !ok {
				s.logger.Warn("skipping backup with no surviving copy", "backup", backup.UUID)
				continue
			}
		} else if opts.Verify {
			digest, err := HashFile(backup.LocalArchivePath())
			if err != nil {
				s.logger.Warn("could not hash local archive", "backup", backup.UUID, "error", err)
			} else if digest != backup.Digest {
				s.logger.Warn("local archive digest mismatch", "backup", backup.UUID)
			}
		}

		if opts.Verify && backup.RemoteID != "" {
			ok, err := s.remoteDigestMatches(lazy, backup)
			if err != nil {
				s.logger.Warn("could not hash remote archive", "backup", backup.UUID, "error", err)
			} else if !ok {
				s.logger.Warn("remote archive digest mismatch", "backup", backup.UUID)
			}
		}

		if opts.UnlockedOnly && backup.Locked {
			continue
		}
		backups = append(backups, backup)
	}

	if opts.SortBySize {
		sort.Slice(backups, func(i, j int) bool { return backups[i].LocalSize() > backups[j].LocalSize() })
	} else {
		sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	}
	return backups, nil
}

// remoteCopyExists checks whether the backup's remote archive exists. A
// backup referencing no remote has no remote copy by definition.
func (s *Service) remoteCopyExists(lazy *lazySession, backup *Backup) (bool, error) {
	if backup.RemoteID == "" {
		return false, nil
	}
	sess, err := lazy.get()
	if err != nil {
		return false, err
	}
	return sess.Exists(backup.RemoteArchivePath(lazy.remote))
}

// remoteDigestMatches compares the remote copy's digest, computed by the
// remote's hash command, to the backup's persisted digest.
func (s *Service) remoteDigestMatches(lazy *lazySession, backup *Backup) (bool, error) {
	sess, err := lazy.get()
	if err != nil {
		return false, err
	}
	digest, err := sess.HashOf(backup.RemoteArchivePath(lazy.remote))
	if err != nil {
		return false, err
	}
	return digest == backup.Digest, nil
}

// LoadBackup loads one backup by UUID and checks that at least one copy
// survives. With verify set, the digest of every present copy is checked and
// a mismatch is a hard ChecksumError; otherwise a local mismatch is only
// logged and the remote copy is checked for existence alone.
func (s *Service) LoadBackup(space *Space, id string, verify bool) (*Backup, error) {
	ref := strings.TrimSuffix(id, ".toml")
	backup, err := loadBackupFile(space, filepath.Join(space.Dir(), ref+".toml"))
	if err != nil {
		return nil, err
	}

	lazy := s.lazyFor(space)
	defer lazy.close()

	if !backup.HasLocal() {
		ok, err := s.remoteCopyExists(lazy, backup)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InvalidBackupError{ID: backup.UUID, Reason: "no local or remote copy survives"}
		}
	} else {
		digest, err := HashFile(backup.LocalArchivePath())
		if err != nil {
			return nil, err
		}
		if digest != backup.Digest {
			if verify {
				return nil, &ChecksumError{ID: backup.UUID, Tier: "local"}
			}
			s.logger.Warn("local archive digest mismatch", "backup", backup.UUID)
		}
	}

	if verify && backup.RemoteID != "" {
		ok, err := s.remoteDigestMatches(lazy, backup)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ChecksumError{ID: backup.UUID, Tier: "remote"}
		}
	}
	return backup, nil
}

// VerifyBackup recomputes the digest of the requested copy and compares it
// to the digest fixed at creation. An empty tier prefers the local copy and
// falls back to the remote one. Does not mutate state.
func (s *Service) VerifyBackup(backup *Backup, tier SourceTier) (bool, error) {
	if tier == "" {
		if backup.HasLocal() {
			tier = SourceLocal
		} else {
			tier = SourceRemote
		}
	}

	if tier == SourceRemote {
		if backup.RemoteID == "" {
			return false, ErrNoRemote
		}
		remote, err := s.remote.Load(backup.RemoteID)
		if err != nil {
			return false, err
		}
		sess, err := s.dialer.Dial(remote)
		if err != nil {
			return false, err
		}
		defer sess.Close()

		digest, err := sess.HashOf(backup.RemoteArchivePath(remote))
		if err != nil {
			return false, err
		}
		return digest == backup.Digest, nil
	}

	if !backup.HasLocal() {
		return false, &InvalidBackupError{ID: backup.UUID, Reason: "no local copy to verify"}
	}
	digest, err := HashFile(backup.LocalArchivePath())
	if err != nil {
		return false, err
	}
	return digest == backup.Digest, nil
}

// DeleteBackup removes the backup's local and remote copies and its
// metadata. Locked backups are refused. Remote removal is best effort: a
// dead remote must not make local cleanup impossible.
func (s *Service) DeleteBackup(space *Space, backup *Backup) error {
	if backup.Locked {
		return fmt.Errorf("backup %s is locked", backup.UUID)
	}

	if backup.RemoteID != "" {
		if err := s.removeRemoteCopy(backup); err != nil {
			s.logger.Warn("could not remove remote copy", "backup", backup.UUID, "error", err)
		}
	}

	if err := os.Remove(backup.LocalArchivePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing local archive: %w", err)
	}
	if err := os.Remove(backup.MetadataPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing backup metadata: %w", err)
	}
	s.logger.Info("deleted backup", "backup", backup.UUID, "space", space.Name)
	return nil
}

func (s *Service) removeRemoteCopy(backup *Backup) error {
	remote, err := s.remote.Load(backup.RemoteID)
	if err != nil {
		return err
	}
	sess, err := s.dialer.Dial(remote)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Remove(backup.RemoteArchivePath(remote)); err != nil {
		return err
	}
	return sess.Remove(backup.RemoteMetadataPath(remote))
}

// SetBackupLock locks or unlocks the backup and refreshes the remote
// metadata mirror best effort.
func (s *Service) SetBackupLock(backup *Backup, locked bool) error {
	backup.Locked = locked
	if err := backup.saveMetadata(); err != nil {
		return err
	}

	if backup.RemoteID != "" {
		if err := s.refreshRemoteMetadata(backup); err != nil {
			s.logger.Warn("could not refresh remote metadata", "backup", backup.UUID, "error", err)
		}
	}
	return nil
}

func (s *Service) refreshRemoteMetadata(backup *Backup) error {
	remote, err := s.remote.Load(backup.RemoteID)
	if err != nil {
		return err
	}
	sess, err := s.dialer.Dial(remote)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.Upload(backup.MetadataPath(), backup.RemoteMetadataPath(remote))
}

// enforceLimits applies the space's retention limits after created has been
// persisted. Without auto deletion a violated limit is a CapacityError;
// with it, eviction candidates (never created itself, never locked backups)
// are removed per the space's eviction rule until the limits hold.
func (s *Service) enforceLimits(space *Space, created *Backup) error {
	for {
		backups, err := s.Backups(space, ListOptions{})
		if err != nil {
			return err
		}

		violated, err := s.violatedLimit(space, backups)
		if err != nil {
			return err
		}
		if violated == nil {
			return nil
		}
		if !space.AutoDeletion {
			return violated
		}

		victim := s.evictionCandidate(space, backups, created)
		if victim == nil {
			return violated
		}
		s.logger.Info("evicting backup to satisfy retention limit",
			"backup", victim.UUID, "space", space.Name, "rule", string(space.EvictionRule))
		if err := s.DeleteBackup(space, victim); err != nil {
			return err
		}
	}
}

// PerformAutoDeletion evicts backups until the space is within its limits
// and returns how many were removed. Unlike creation-time enforcement there
// is no protected trigger backup; locked backups stay immune.
func (s *Service) PerformAutoDeletion(space *Space) (int, error) {
	removed := 0
	for {
		backups, err := s.Backups(space, ListOptions{})
		if err != nil {
			return removed, err
		}
		violated, err := s.violatedLimit(space, backups)
		if err != nil {
			return removed, err
		}
		if violated == nil {
			return removed, nil
		}

		victim := s.evictionCandidate(space, backups, nil)
		if victim == nil {
			return removed, violated
		}
		if err := s.DeleteBackup(space, victim); err != nil {
			return removed, err
		}
		removed++
	}
}

// violatedLimit returns the CapacityError for the first exceeded retention
// limit, or nil when the space is within its limits.
func (s *Service) violatedLimit(space *Space, backups []*Backup) (error, error) {
	if space.MaxBackups > 0 && len(backups) > space.MaxBackups {
		return &CapacityError{
			Space: space.Name, Limit: "backups",
			Have: int64(len(backups)), Max: int64(space.MaxBackups),
		}, nil
	}

	if space.MaxSize > 0 {
		usage, err := s.diskUsage(space, backups)
		if err != nil {
			return nil, err
		}
		if usage >= space.MaxSize {
			return &CapacityError{
				Space: space.Name, Limit: "size",
				Have: usage, Max: space.MaxSize,
			}, nil
		}
	}
	return nil, nil
}

// diskUsage sums the archive sizes of the given backups. Remote-only
// backups are sized over a single lazily opened session.
func (s *Service) diskUsage(space *Space, backups []*Backup) (int64, error) {
	lazy := s.lazyFor(space)
	defer lazy.close()

	var total int64
	for _, b := range backups {
		if b.HasLocal() {
			total += b.LocalSize()
			continue
		}
		if b.RemoteID == "" {
			continue
		}
		sess, err := lazy.get()
		if err != nil {
			return 0, err
		}
		size, err := sess.SizeOf(b.RemoteArchivePath(lazy.remote))
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

// DiskUsage reports the space's current total archive size in bytes.
func (s *Service) DiskUsage(space *Space) (int64, error) {
	backups, err := s.Backups(space, ListOptions{})
	if err != nil {
		return 0, err
	}
	return s.diskUsage(space, backups)
}

// evictionCandidate picks the backup the space's eviction rule sacrifices.
// The protected backup and locked backups are never candidates.
func (s *Service) evictionCandidate(space *Space, backups []*Backup, protected *Backup) *Backup {
	var candidates []*Backup
	for _, b := range backups {
		if b.Locked {
			continue
		}
		if protected != nil && b.UUID == protected.UUID {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return nil
	}

	pick := candidates[0]
	for _, b := range candidates[1:] {
		switch space.EvictionRule {
		case EvictNewest:
			if b.CreatedAt.After(pick.CreatedAt) {
				pick = b
			}
		case EvictLargest:
			if b.LocalSize() > pick.LocalSize() {
				pick = b
			}
		case EvictSmallest:
			if b.LocalSize() < pick.LocalSize() {
				pick = b
			}
		default: // EvictOldest
			if b.CreatedAt.Before(pick.CreatedAt) {
				pick = b
			}
		}
	}
	return pick
}
