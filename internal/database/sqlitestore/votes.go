package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"confide/internal/database"
	"confide/internal/models"
)

// UpsertVote records a +1/-1 vote inside one transaction: the vote row
// and the post's aggregate counters always move together. A revote with
// the opposite value removes the old value and applies the new one; a
// revote with the same value is a no-op.
func (s *Store) UpsertVote(ctx context.Context, voterID, postID string, value int) (*models.Vote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}
	defer rollback(tx)

	// The post must exist and not be soft-deleted.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ? AND is_deleted = 0`, postID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}

	var vote models.Vote
	var oldValue int
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		SELECT id, value, created_at FROM votes WHERE voter_id = ? AND post_id = ?
	`, voterID, postID).Scan(&vote.ID, &oldValue, &createdAt)

	switch {
	case err == sql.ErrNoRows:
		vote = models.Vote{
			ID:        uuid.NewString(),
			VoterID:   voterID,
			PostID:    postID,
			Value:     value,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO votes (id, voter_id, post_id, value, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, vote.ID, voterID, postID, value, vote.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return nil, fmt.Errorf("upsert vote: insert: %w", err)
		}
		if err := adjustCounters(ctx, tx, postID, 0, value); err != nil {
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("upsert vote: %w", err)

	case oldValue == value:
		// Same vote again; nothing changes.
		vote.VoterID = voterID
		vote.PostID = postID
		vote.Value = value
		vote.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		return &vote, tx.Commit()

	default:
		if _, err := tx.ExecContext(ctx, `UPDATE votes SET value = ? WHERE id = ?`, value, vote.ID); err != nil {
			return nil, fmt.Errorf("upsert vote: update: %w", err)
		}
		vote.VoterID = voterID
		vote.PostID = postID
		vote.Value = value
		vote.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if err := adjustCounters(ctx, tx, postID, oldValue, value); err != nil {
			return nil, err
		}
	}

	return &vote, tx.Commit()
}

// adjustCounters applies the vote delta to the post's aggregates: the
// old value (if any) is removed and the new one applied, never a blind
// increment.
func adjustCounters(ctx context.Context, tx *sql.Tx, postID string, oldValue, newValue int) error {
	upDelta := 0
	downDelta := 0
	if oldValue == 1 {
		upDelta--
	}
	if oldValue == -1 {
		downDelta--
	}
	if newValue == 1 {
		upDelta++
	}
	if newValue == -1 {
		downDelta++
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE posts SET upvotes = upvotes + ?, downvotes = downvotes + ? WHERE id = ?
	`, upDelta, downDelta, postID)
	if err != nil {
		return fmt.Errorf("upsert vote: adjust counters: %w", err)
	}
	return nil
}
