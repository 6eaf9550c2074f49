// Package cache provides a persistent extraction cache so unchanged
// corpus files are not re-extracted across runs. Entries are keyed by
// file path and validated against a SHA-256 content hash.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/coolbeans/lexcan/pkg/statute"
)

var documentsBucket = []byte("documents")

// Store is a bbolt-backed document cache. A nil *Store is valid and
// caches nothing.
type Store struct {
	db *bolt.DB
}

// entry is the stored form of one cached extraction.
type entry struct {
	Hash     string            `json:"hash"`
	FullText bool              `json:"full_text"`
	Document *statute.Document `json:"document"`
}

// Open opens (or creates) the cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (store *Store) Close() error {
	if store == nil {
		return nil
	}
	return store.db.Close()
}

// HashContent returns the hex SHA-256 of file contents, the hash form
// entries are validated against.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached document for a file path if the stored content
// hash matches and the entry satisfies the full-text requirement. An
// entry extracted without full text never serves a full-text run, and a
// full-text entry serves a plain run with the field cleared, so the
// run mode alone decides whether the output carries full text.
func (store *Store) Get(path, hash string, wantFullText bool) (*statute.Document, bool) {
	if store == nil {
		return nil, false
	}

	var cached entry
	err := store.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(documentsBucket).Get([]byte(path))
		if value == nil {
			return fmt.Errorf("not cached")
		}
		return json.Unmarshal(value, &cached)
	})
	if err != nil {
		return nil, false
	}

	if cached.Hash != hash {
		return nil, false
	}
	if wantFullText && !cached.FullText {
		return nil, false
	}
	if !wantFullText && cached.FullText {
		plain := *cached.Document
		plain.FullText = ""
		return &plain, true
	}

	return cached.Document, true
}

// Put stores an extracted document under its file path, replacing any
// previous entry.
func (store *Store) Put(path, hash string, fullText bool, document *statute.Document) error {
	if store == nil {
		return nil
	}

	value, err := json.Marshal(entry{Hash: hash, FullText: fullText, Document: document})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry for %s: %w", path, err)
	}

	err = store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(path), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry for %s: %w", path, err)
	}

	return nil
}
