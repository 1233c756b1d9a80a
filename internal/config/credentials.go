package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fixed keys under which Drive credentials are looked up, both in the environment
// and in the persisted store.
const (
	KeyGoogleAPIKey   = "GOOGLE_API_KEY"
	KeyGoogleClientID = "GOOGLE_CLIENT_ID"
)

// Credentials identify the application to Google.
type Credentials struct {
	APIKey   string
	ClientID string
}

// Complete reports whether both values are present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.ClientID != ""
}

// KVStore persists string values under fixed keys.
type KVStore interface {
	Get(key string) (string, error)
	Set(values map[string]string) error
}

// FileStore is a KVStore backed by a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Set merges values into the file, writing it atomically.
func (s *FileStore) Set(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	out, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	values := map[string]string{}
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

// CredentialResolver implements the two-tier lookup: environment first, then the
// persisted store.
type CredentialResolver struct {
	store  KVStore
	lookup func(string) (string, bool)
}

func NewCredentialResolver(store KVStore) *CredentialResolver {
	return &CredentialResolver{store: store, lookup: os.LookupEnv}
}

// WithLookup replaces the environment lookup. Intended for tests.
func (r *CredentialResolver) WithLookup(lookup func(string) (string, bool)) *CredentialResolver {
	r.lookup = lookup
	return r
}

func (r *CredentialResolver) Credentials() Credentials {
	return Credentials{
		APIKey:   r.value(KeyGoogleAPIKey),
		ClientID: r.value(KeyGoogleClientID),
	}
}

func (r *CredentialResolver) value(key string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	if r.store == nil {
		return ""
	}
	v, err := r.store.Get(key)
	if err != nil {
		slog.Warn("Could not read persisted credential", "key", key, "error", err)
		return ""
	}
	return v
}

// Persist stores developer-entered credentials. Environment values still win on
// the next lookup.
func (r *CredentialResolver) Persist(c Credentials) error {
	if r.store == nil {
		return fmt.Errorf("no credential store configured")
	}
	return r.store.Set(map[string]string{
		KeyGoogleAPIKey:   c.APIKey,
		KeyGoogleClientID: c.ClientID,
	})
}
