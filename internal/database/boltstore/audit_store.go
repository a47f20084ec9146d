// Package boltstore provides the BoltDB-backed audit trail for admin
// actions. The audit log is append-only operational data, kept separate
// from the relational store so admin bookkeeping never contends with the
// submission write path.
package boltstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BucketAuditLog stores admin action entries keyed by reverse timestamp
// so iteration yields newest first.
var BucketAuditLog = []byte("admin_audit_log")

// Action is the kind of admin operation being recorded.
type Action string

const (
	ActionApprovePost Action = "approve_post"
	ActionDeletePost  Action = "delete_post"
)

// AuditEntry is one logged admin action.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	PostID    string    `json:"postId"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditStore wraps a BoltDB database holding the audit log.
type AuditStore struct {
	db *bolt.DB
}

// Open creates or opens the audit database at path, creating the bucket
// and any parent directories as needed.
func Open(path string) (*AuditStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create audit database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BucketAuditLog)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit bucket: %w", err)
	}

	return &AuditStore{db: db}, nil
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// LogAction appends an entry to the audit log. Timestamp and ID are
// filled in when empty.
func (s *AuditStore) LogAction(entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("%d", entry.Timestamp.UnixNano())
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketAuditLog)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}

		// Key by inverted nanoseconds so a forward cursor scan returns
		// newest entries first.
		key := fmt.Sprintf("%020d", int64(^uint64(entry.Timestamp.UnixNano())>>1))
		return bucket.Put([]byte(key+":"+entry.ID), data)
	})
}

// ListActions returns up to limit entries, newest first.
func (s *AuditStore) ListActions(limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []AuditEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry AuditEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}
