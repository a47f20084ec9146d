// Package database defines the persistence interface for confessions,
// votes, and pseudonymous identities. The concrete implementation lives
// in sqlitestore; handlers and services depend only on this interface.
package database

import (
	"context"
	"errors"

	"confide/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// PendingPost pairs an unresolved moderation record with its post, for
// the admin review queue.
type PendingPost struct {
	Record *models.ModerationRecord `json:"record"`
	Post   *models.Post             `json:"confession"`
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use; vote upserts must adjust post counters atomically with
// the vote row itself.
type Store interface {
	// Posts
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// ListVisiblePosts returns non-deleted posts without an unresolved
	// moderation record, newest first. An empty category means all.
	ListVisiblePosts(ctx context.Context, category models.Category, limit int) ([]*models.Post, error)
	// ListAllPosts is the paged admin view: non-deleted posts regardless
	// of moderation state, newest first. Page is 1-based.
	ListAllPosts(ctx context.Context, page, limit int) ([]*models.Post, error)
	CountPosts(ctx context.Context) (int, error)
	// SoftDeletePost marks the post deleted and removes any moderation
	// record. Idempotent.
	SoftDeletePost(ctx context.Context, id string) error

	// Moderation queue
	CreateModerationRecord(ctx context.Context, rec *models.ModerationRecord) error
	GetModerationRecord(ctx context.Context, postID string) (*models.ModerationRecord, error)
	// ResolveModerationRecord marks the record for postID resolved.
	// Resolving a post with no record is a no-op.
	ResolveModerationRecord(ctx context.Context, postID string) error
	ListPendingPosts(ctx context.Context) ([]PendingPost, error)

	// Identities
	// GetOrCreateIdentity returns the identity for a session token,
	// creating it with the supplied alias on first contact.
	GetOrCreateIdentity(ctx context.Context, token, alias string) (*models.Identity, error)

	// Votes
	// UpsertVote records a vote, updating in place on revote and
	// adjusting the post's counters by the delta in the same
	// transaction. A same-value revote changes nothing.
	UpsertVote(ctx context.Context, voterID, postID string, value int) (*models.Vote, error)

	Close() error
}
