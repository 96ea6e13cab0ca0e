package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when no document is stored under a key.
var ErrNotFound = errors.New("document not found")

// Document is one converted post body.
type Document struct {
	Key         string    `json:"key"`
	Checksum    string    `json:"checksum"`
	Markdown    string    `json:"markdown"`
	ConvertedAt time.Time `json:"converted_at"`
}

// Storage manages the bbolt database.
type Storage struct {
	db *bbolt.DB
}

// bucketName is the name of the bucket where documents are stored.
var bucketName = []byte("documents")

// NewStorage creates or opens a bbolt database, creating its directory when
// needed.
func NewStorage(dbPath string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// StoreDocument stores a document under its key, replacing any previous one.
func (s *Storage) StoreDocument(doc *Document) error {
	if doc.Key == "" {
		return errors.New("document key is empty")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		encoded, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		return b.Put([]byte(doc.Key), encoded)
	})
}

// GetDocument retrieves a document by its key.
func (s *Storage) GetDocument(key string) (*Document, error) {
	var doc Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return ErrNotFound
		}

		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}

		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a document by its key.
func (s *Storage) DeleteDocument(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil || b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}

// ListDocuments returns every stored document ordered by key.
func (s *Storage) ListDocuments() ([]*Document, error) {
	var docs []*Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				// corrupted entries are skipped, the next conversion rewrites them
				return nil
			}
			docs = append(docs, &doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

// Clean deletes every stored document.
func (s *Storage) Clean() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return nil
		}
		return tx.DeleteBucket(bucketName)
	})
}
