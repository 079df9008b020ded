package lock

// FileName is the lock file created inside the cache directory.
const FileName = "git-cache.lock"

// Holder records the process holding an exclusive lock.
type Holder struct {
	PID        int    `yaml:"pid"`
	Host       string `yaml:"host,omitempty"`
	Command    string `yaml:"command,omitempty"`
	AcquiredAt string `yaml:"acquired_at"`
}

// Mode selects shared or exclusive locking.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}
