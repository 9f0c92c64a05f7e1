package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/logging"
)

// Keys understood by the engine and the backends.
const (
	KeyRefreshBeforeExtract = "refresh_before_extract"
	KeySQLDatabase          = "sql_database"
	KeyCacheDirectory       = "cache_directory"
	KeyLanguage             = "language"
	KeyAliases              = "aliases"
)

// DefaultPath returns <user config dir>/rbx-extract/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "rbx-extract", "config.yaml")
}

// Store is a key-value configuration persisted as a YAML mapping. Missing
// keys read as the zero value. Every Set is written to disk immediately.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewMemory returns a Store that is never persisted.
func NewMemory() *Store {
	return &Store{values: make(map[string]any)}
}

// Load reads the YAML file at path. A missing or unreadable file yields an
// empty Store that will be created on the first Set.
func Load(path string) *Store {
	s := &Store{path: path, values: make(map[string]any)}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to read config file %s: %v", path, err)
		}
		return s
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		logging.Warn("Failed to decode YAML config from %s, using defaults: %v", path, err)
		s.values = make(map[string]any)
		return s
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s
}

// Path returns the file backing the Store, or "" for a memory store.
func (s *Store) Path() string {
	return s.path
}

// GetString returns the string value of key, or "".
func (s *Store) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch v := s.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// GetBool returns the boolean value of key, or false. String values such as
// "true" or "1" are accepted.
func (s *Store) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch v := s.values[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case int:
		return v != 0
	default:
		return false
	}
}

// Set stores value under key and saves the file.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.saveLocked()
}

// Alias returns the friendly name configured for an asset, or "".
func (s *Store) Alias(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliasesLocked()[name]
}

// Aliases returns a copy of every configured alias.
func (s *Store) Aliases() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliasesLocked()
}

// SetAlias sets the friendly name of an asset and saves the file. An empty
// alias removes it.
func (s *Store) SetAlias(name, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	aliases := s.aliasesLocked()
	if alias == "" {
		delete(aliases, name)
	} else {
		aliases[name] = alias
	}
	s.values[KeyAliases] = aliases
	return s.saveLocked()
}

// aliasesLocked converts the decoded aliases mapping to a fresh map.
func (s *Store) aliasesLocked() map[string]string {
	out := make(map[string]string)
	switch m := s.values[KeyAliases].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if str, ok := v.(string); ok {
				out[k] = str
			}
		}
	case map[any]any:
		// numeric-looking asset names decode as non-string keys
		for k, v := range m {
			if str, ok := v.(string); ok {
				out[fmt.Sprint(k)] = str
			}
		}
	}
	return out
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(s.values); err != nil {
		return fmt.Errorf("failed to encode YAML config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize YAML encoding: %w", err)
	}

	if err := filesystem.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := filesystem.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", s.path, err)
	}
	return nil
}
