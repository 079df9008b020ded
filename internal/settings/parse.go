package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the settings used when no config file exists.
func Default() *Settings {
	return &Settings{Version: 1}
}

// DefaultPath returns $GIT_CACHE_CONFIG, or config.yaml under the user
// configuration directory.
func DefaultPath() (string, error) {
	if p := os.Getenv("GIT_CACHE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating settings: %w", err)
	}
	return filepath.Join(dir, "git-cache", "config.yaml"), nil
}

// Load reads and validates a settings file. A missing file yields Default().
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's settings file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates config.yaml content.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnv overrides log settings from GIT_CACHE_LOG_* environment variables.
func (s *Settings) ApplyEnv() {
	if v, ok := os.LookupEnv("GIT_CACHE_LOG_FILE"); ok {
		s.Log.File = v
	}
	if v := os.Getenv("GIT_CACHE_LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Log.MaxSize = n
		}
	}
	if v := os.Getenv("GIT_CACHE_LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.Log.MaxBackups = &n
		}
	}
	if v := os.Getenv("GIT_CACHE_LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Log.MaxAge = n
		}
	}
}

func validate(s *Settings) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported settings version: %d (expected 1)", s.Version)
	}
	if s.UserRoot != "" && !filepath.IsAbs(s.UserRoot) {
		return fmt.Errorf("settings: user_root must be an absolute path: %s", s.UserRoot)
	}
	for i, root := range s.SharedRoots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("settings: shared_roots[%d] must be an absolute path: %s", i, root)
		}
	}
	if s.Lock.Timeout != "" {
		d, err := time.ParseDuration(s.Lock.Timeout)
		if err != nil {
			return fmt.Errorf("settings: lock.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("settings: lock.timeout must be positive: %s", s.Lock.Timeout)
		}
	}
	if s.Log.MaxSize < 0 || s.Log.MaxAge < 0 {
		return fmt.Errorf("settings: log.max_size and log.max_age must not be negative")
	}
	if s.Log.MaxBackups != nil && *s.Log.MaxBackups < 0 {
		return fmt.Errorf("settings: log.max_backups must not be negative")
	}
	return nil
}
