package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"confide/internal/database"
	"confide/internal/models"
)

// postColumns is the select list shared by every post query; rows are
// scanned by scanPost.
const postColumns = `
	p.id, p.content, p.category, p.sentiment, p.upvotes, p.downvotes,
	p.is_deleted, p.author_id, i.alias, p.created_at`

// visibleWhere is the public visibility rule: not soft-deleted and no
// unresolved moderation record.
const visibleWhere = `
	p.is_deleted = 0
	AND NOT EXISTS (
		SELECT 1 FROM moderation_records m
		WHERE m.post_id = p.id AND m.resolved = 0
	)`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var sentiment sql.NullFloat64
	var isDeleted int
	var createdAt string

	err := row.Scan(&p.ID, &p.Content, &p.Category, &sentiment, &p.Upvotes, &p.Downvotes,
		&isDeleted, &p.AuthorID, &p.Alias, &createdAt)
	if err != nil {
		return nil, err
	}

	if sentiment.Valid {
		v := sentiment.Float64
		p.Sentiment = &v
	}
	p.IsDeleted = isDeleted == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	var sentiment any
	if post.Sentiment != nil {
		sentiment = *post.Sentiment
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, content, category, sentiment, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, post.ID, post.Content, string(post.Category), sentiment, post.AuthorID,
		post.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p JOIN identities i ON i.id = p.author_id
		WHERE p.id = ?
	`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *Store) ListVisiblePosts(ctx context.Context, category models.Category, limit int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p JOIN identities i ON i.id = p.author_id
		WHERE ` + visibleWhere
	var args []any
	if category != "" {
		query += ` AND p.category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY p.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visible posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			continue
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *Store) ListAllPosts(ctx context.Context, page, limit int) ([]*models.Post, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`,
			EXISTS (
				SELECT 1 FROM moderation_records m
				WHERE m.post_id = p.id AND m.resolved = 0
			)
		FROM posts p JOIN identities i ON i.id = p.author_id
		WHERE p.is_deleted = 0
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var p models.Post
		var sentiment sql.NullFloat64
		var isDeleted, pending int
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Content, &p.Category, &sentiment, &p.Upvotes, &p.Downvotes,
			&isDeleted, &p.AuthorID, &p.Alias, &createdAt, &pending); err != nil {
			continue
		}
		if sentiment.Valid {
			v := sentiment.Float64
			p.Sentiment = &v
		}
		p.IsDeleted = isDeleted == 1
		p.Pending = pending == 1
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE is_deleted = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (s *Store) SoftDeletePost(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `UPDATE posts SET is_deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM moderation_records WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("soft delete post: remove moderation record: %w", err)
	}

	return tx.Commit()
}
