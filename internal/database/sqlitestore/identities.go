package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"confide/internal/models"
)

// GetOrCreateIdentity looks up the pseudonymous identity for a session
// token, creating one with the supplied alias on first contact. The
// token is the only link between a client and its identity; it is never
// exposed in read paths.
func (s *Store) GetOrCreateIdentity(ctx context.Context, token, alias string) (*models.Identity, error) {
	identity, err := s.getIdentityByToken(ctx, token)
	if err == nil {
		return identity, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identities (id, alias, token, created_at)
		VALUES (?, ?, ?, ?)
	`, id, alias, token, now.Format(time.RFC3339Nano))
	if err != nil {
		// A concurrent request may have created the identity between
		// the lookup and the insert; the unique token index makes the
		// retry safe.
		if identity, retryErr := s.getIdentityByToken(ctx, token); retryErr == nil {
			return identity, nil
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	return &models.Identity{ID: id, Alias: alias, Token: token, CreatedAt: now}, nil
}

func (s *Store) getIdentityByToken(ctx context.Context, token string) (*models.Identity, error) {
	var identity models.Identity
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, alias, token, created_at FROM identities WHERE token = ?
	`, token).Scan(&identity.ID, &identity.Alias, &identity.Token, &createdAt)
	if err != nil {
		return nil, err
	}
	identity.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &identity, nil
}
