package lock

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the holder recorded in a lock file.
func Load(path string) (*Holder, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the cache lock file
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	return Parse(data)
}

// Parse parses lock file content. Empty content means no exclusive holder.
func Parse(data []byte) (*Holder, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var h Holder
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing lock YAML: %w", err)
	}
	return &h, nil
}

// write replaces the content of the open lock file with h.
func write(f *os.File, h *Holder) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling lock holder: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}
