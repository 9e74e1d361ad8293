package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys under which a session is persisted.
const (
	TokenKey = "admin_token"
	UserKey  = "admin_user"
)

// KeyStore is a small string key/value store that outlives the process
// (or not, for MemoryKeyStore). Get returns "" for an absent key.
type KeyStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type MemoryKeyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{data: make(map[string]string)}
}

func (m *MemoryKeyStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemoryKeyStore) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKeyStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// FileKeyStore keeps keys in a JSON object on disk, readable by the owner only.
type FileKeyStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{Path: path}
}

func (f *FileKeyStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

func (f *FileKeyStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *FileKeyStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	if len(data) == 0 {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove key store: %w", err)
		}
		return nil
	}
	return f.save(data)
}

func (f *FileKeyStore) load() (map[string]string, error) {
	data := make(map[string]string)
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("read key store: %w", err)
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode key store: %w", err)
	}
	return data, nil
}

func (f *FileKeyStore) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create key store dir: %w", err)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key store: %w", err)
	}
	return os.WriteFile(f.Path, b, 0o600)
}
