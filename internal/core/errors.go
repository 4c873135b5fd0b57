package core

import (
	"errors"
	"fmt"
)

// ErrNoRemote is returned when an operation requests a remote copy but the
// backup space has no remote bound. This is a usage error, rejected before
// any artifact is produced.
var ErrNoRemote = errors.New("backup space has no remote bound")

// NotFoundError reports that an entity could not be resolved by id or name.
type NotFoundError struct {
	Kind string // "backup space", "backup", "remote", "schedule", "source path"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidBackupError reports a backup that exists on disk but cannot be
// trusted: unparsable metadata, or neither a local nor a remote archive
// surviving.
type InvalidBackupError struct {
	ID     string
	Reason string
}

func (e *InvalidBackupError) Error() string {
	return fmt.Sprintf("backup %q is invalid: %s", e.ID, e.Reason)
}

// InvalidSpaceError reports a backup space with corrupt or mismatched
// persisted configuration.
type InvalidSpaceError struct {
	ID     string
	Reason string
}

func (e *InvalidSpaceError) Error() string {
	return fmt.Sprintf("backup space %q is invalid: %s", e.ID, e.Reason)
}

// InvalidScheduleError reports a schedule with corrupt persisted metadata.
type InvalidScheduleError struct {
	ID     string
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("schedule %q is invalid: %s", e.ID, e.Reason)
}

// ChecksumError reports a digest mismatch between a stored archive and its
// persisted digest. The default policy on load is to warn; strict callers
// escalate this to a hard failure.
type ChecksumError struct {
	ID   string
	Tier string // "local" or "remote"
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("backup %q failed digest verification (%s copy)", e.ID, e.Tier)
}

// CapacityError reports a retention limit that could not be satisfied. The
// triggering creation has been rolled back when this error is returned.
type CapacityError struct {
	Space string
	Limit string // "backups" or "size"
	Have  int64
	Max   int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("backup space %q reached its %s limit: %d / %d", e.Space, e.Limit, e.Have, e.Max)
}

// TransferError reports a failed remote operation. Local state is preserved
// when this error is returned.
type TransferError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("remote %s of %q failed: %v", e.Op, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports an unknown compression algorithm name.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("compression algorithm %q is not available", e.Name)
}
