package settings

import "time"

// Settings represents the git-cache config.yaml file.
type Settings struct {
	Version     int      `yaml:"version"`
	Git         string   `yaml:"git,omitempty"`
	UserRoot    string   `yaml:"user_root,omitempty"`
	SharedRoots []string `yaml:"shared_roots,omitempty"`
	Lock        Lock     `yaml:"lock,omitempty"`
	Log         Log      `yaml:"log,omitempty"`
}

// Lock configures the advisory lock taken around cache mutations.
type Lock struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

// Log configures the rotating debug log file. An empty File disables it.
type Log struct {
	File       string `yaml:"file,omitempty"`
	MaxSize    int    `yaml:"max_size,omitempty"`
	MaxBackups *int   `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age,omitempty"`
}

// DefaultSharedRoots are the directories under which a cache is shared
// between users.
var DefaultSharedRoots = []string{"/var/cache", "/var/tmp"}

// DefaultLockTimeout bounds how long a command waits for another one to
// release the cache.
const DefaultLockTimeout = 10 * time.Minute

// GitBinary returns the git executable, defaulting to "git".
func (s *Settings) GitBinary() string {
	if s.Git != "" {
		return s.Git
	}
	return "git"
}

// EffectiveSharedRoots returns the configured shared roots, falling back to defaults.
func (s *Settings) EffectiveSharedRoots() []string {
	if len(s.SharedRoots) > 0 {
		return s.SharedRoots
	}
	return DefaultSharedRoots
}

// LockTimeout returns the parsed lock timeout, falling back to the default.
// The value has already been checked by validate.
func (s *Settings) LockTimeout() time.Duration {
	if s.Lock.Timeout == "" {
		return DefaultLockTimeout
	}
	d, err := time.ParseDuration(s.Lock.Timeout)
	if err != nil {
		return DefaultLockTimeout
	}
	return d
}

// EffectiveMaxBackups returns the number of rotated log files to keep (default 2).
func (l *Log) EffectiveMaxBackups() int {
	if l.MaxBackups != nil {
		return *l.MaxBackups
	}
	return 2
}
