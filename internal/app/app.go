// Package app is the application layer between the CLI and the core
// service. It constructs all dependencies from config, journals mutating
// operations and manages resource lifecycles on Close.
package app

import (
	"fmt"
	"os"

	"github.com/tgross03/backpy/internal/config"
	"github.com/tgross03/backpy/internal/core"
	"github.com/tgross03/backpy/internal/encryption"
	"github.com/tgross03/backpy/internal/journal"
	"github.com/tgross03/backpy/internal/remote"
	"github.com/tgross03/backpy/internal/sched"

	archivepkg "github.com/tgross03/backpy/internal/archive"
)

// App wires the core service from configuration. The caller must call
// Close when done.
type App struct {
	Config  *config.Config
	Service *core.Service
	Remotes *remote.Store
	Cipher  *encryption.Cipher
	Journal core.Journal

	clock   core.Clock
	logFile *os.File
	opID    int64
}

// New creates a fully wired App from the given config.
func New(cfg *config.Config) (*App, error) {
	logger, logFile, err := newLogger(cfg.LogDir)
	if err != nil {
		return nil, err
	}

	cipher := encryption.NewCipher(cfg.KeyPath())
	remotes := remote.NewStore(cfg.RemotesDir(), cipher)

	jrnl, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logFile.Close()
		return nil, err
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = "backpy"
	}

	clock := core.RealClock{}
	service := core.NewService(core.Deps{
		Codec:        archivepkg.NewCodec(),
		Dialer:       remote.NewSSHDialer(),
		Remotes:      remotes,
		Scheduler:    sched.NewCrontabScheduler(sched.ExecRunner{}),
		Logger:       &slogAdapter{l: logger},
		Clock:        clock,
		SpacesDir:    cfg.SpacesDir(),
		SchedulesDir: cfg.SchedulesDir(),
		TempDir:      cfg.TempDir(),
		ExecPath:     execPath,
	})

	return &App{
		Config:  cfg,
		Service: service,
		Remotes: remotes,
		Cipher:  cipher,
		Journal: jrnl,
		clock:   clock,
		logFile: logFile,
	}, nil
}

// DefaultFormat resolves the configured default compression format.
func (a *App) DefaultFormat() (core.Format, int, error) {
	format, err := core.ParseFormat(a.Config.Defaults.CompressionAlgorithm)
	if err != nil {
		return "", 0, fmt.Errorf("invalid default compression algorithm: %w", err)
	}
	return format, a.Config.Defaults.CompressionLevel, nil
}

// NewRemote builds a Remote with the configured transport defaults applied.
func (a *App) NewRemote() *core.Remote {
	return &core.Remote{
		Port:           22,
		RootDir:        a.Config.Defaults.RemoteRootDir,
		HashCommand:    a.Config.Remote.HashCommand,
		ConnectTimeout: a.Config.ConnectTimeout(),
	}
}

// StartOperation journals the beginning of a mutating operation. Read-only
// commands skip this. A journaling failure is not fatal to the operation.
func (a *App) StartOperation(name, spaceID, detail string) {
	id, err := a.Journal.Record(&core.Operation{
		Name:      name,
		SpaceID:   spaceID,
		Detail:    detail,
		StartedAt: a.clock.Now(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not journal operation: %v\n", err)
		return
	}
	a.opID = id
}

// FinishOperation records the outcome of the started operation.
func (a *App) FinishOperation(opErr error) {
	if a.opID == 0 {
		return
	}
	status := "success"
	if opErr != nil {
		status = "error"
	}
	if err := a.Journal.Finish(a.opID, status, a.clock.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not journal operation result: %v\n", err)
	}
	a.opID = 0
}

// Close releases the journal and log file.
func (a *App) Close() error {
	err := a.Journal.Close()
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}
