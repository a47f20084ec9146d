package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"confide/internal/database"
	"confide/internal/models"
)

func (s *Store) CreateModerationRecord(ctx context.Context, rec *models.ModerationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_records (id, post_id, reason, resolved, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, rec.ID, rec.PostID, rec.Reason, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create moderation record: %w", err)
	}
	return nil
}

func (s *Store) GetModerationRecord(ctx context.Context, postID string) (*models.ModerationRecord, error) {
	var rec models.ModerationRecord
	var resolved int
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, post_id, reason, resolved, created_at
		FROM moderation_records WHERE post_id = ?
	`, postID).Scan(&rec.ID, &rec.PostID, &rec.Reason, &resolved, &createdAt)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get moderation record: %w", err)
	}
	rec.Resolved = resolved == 1
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &rec, nil
}

func (s *Store) ResolveModerationRecord(ctx context.Context, postID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE moderation_records SET resolved = 1 WHERE post_id = ?
	`, postID)
	if err != nil {
		return fmt.Errorf("resolve moderation record: %w", err)
	}
	return nil
}

func (s *Store) ListPendingPosts(ctx context.Context) ([]database.PendingPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.post_id, m.reason, m.created_at, `+postColumns+`
		FROM moderation_records m
		JOIN posts p ON p.id = m.post_id
		JOIN identities i ON i.id = p.author_id
		WHERE m.resolved = 0 AND p.is_deleted = 0
		ORDER BY m.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending posts: %w", err)
	}
	defer rows.Close()

	var pending []database.PendingPost
	for rows.Next() {
		var rec models.ModerationRecord
		var recCreatedAt string
		var p models.Post
		var sentiment sql.NullFloat64
		var isDeleted int
		var postCreatedAt string

		if err := rows.Scan(&rec.ID, &rec.PostID, &rec.Reason, &recCreatedAt,
			&p.ID, &p.Content, &p.Category, &sentiment, &p.Upvotes, &p.Downvotes,
			&isDeleted, &p.AuthorID, &p.Alias, &postCreatedAt); err != nil {
			continue
		}

		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, recCreatedAt)
		if sentiment.Valid {
			v := sentiment.Float64
			p.Sentiment = &v
		}
		p.IsDeleted = isDeleted == 1
		p.Pending = true
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, postCreatedAt)

		pending = append(pending, database.PendingPost{Record: &rec, Post: &p})
	}
	return pending, rows.Err()
}
