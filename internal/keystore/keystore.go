// Package keystore persists API credentials in a local bbolt file.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Fixed credential names, one per service.
const (
	HeadlineAPIKey = "newsapi_api_key"
	ScrapeAPIKey   = "firecrawl_api_key"
)

var credentialsBucket = []byte("credentials")

// ErrNotFound is returned by Get when no credential is stored under a name.
var ErrNotFound = errors.New("credential not found")

// Store is a key-value credential store.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("keystore path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create keystore dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init keystore bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores value under name, replacing any previous value. The value is
// kept byte for byte.
func (s *Store) Save(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("credential name is empty")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put([]byte(name), []byte(value))
	})
}

// Get returns the value stored under name.
func (s *Store) Get(name string) (string, error) {
	name = strings.TrimSpace(name)
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(credentialsBucket).Get([]byte(name)); v != nil {
			value = string(v) // copy; v is only valid inside the transaction
			found = true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read credential %q: %w", name, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Lookup is Get that treats a missing credential as empty.
func (s *Store) Lookup(name string) (string, error) {
	v, err := s.Get(name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Delete removes the credential stored under name. Missing names are not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(strings.TrimSpace(name)))
	})
}
