package core

// Scheduler binds commands to an external periodic trigger (the user's
// crontab in production).
type Scheduler interface {
	// Validate reports whether pattern is an acceptable cron time pattern.
	Validate(pattern string) error

	// Register installs a periodic trigger running command per pattern,
	// identified by tag. Registering an existing tag replaces its trigger.
	Register(tag, command, pattern string) error

	// Deregister removes all triggers carrying tag. Removing an unknown tag
	// is a no-op.
	Deregister(tag string) error

	// IsRegistered reports whether at least one trigger carries tag.
	IsRegistered(tag string) (bool, error)
}
