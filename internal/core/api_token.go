package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/dbvault/internal/model"
	"github.com/edvin/dbvault/internal/platform"
)

// TokenService manages bearer tokens. Only the SHA-256 hash is stored; the
// raw value is returned exactly once from Create.
type TokenService struct {
	db DB
}

func NewTokenService(db DB) *TokenService {
	return &TokenService{db: db}
}

// Create generates a new token for a user and returns the model along with
// the raw token string.
func (s *TokenService) Create(ctx context.Context, userID, name string) (*model.APIToken, string, error) {
	rawToken := "dbv_" + platform.NewToken()

	token := &model.APIToken{
		ID:        platform.NewID(),
		UserID:    userID,
		Name:      name,
		TokenHash: hashToken(rawToken),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_tokens (id, user_id, name, token_hash, created_at) VALUES ($1, $2, $3, $4, now())`,
		token.ID, token.UserID, token.Name, token.TokenHash,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert token: %w", err)
	}

	err = s.db.QueryRow(ctx, `SELECT created_at FROM api_tokens WHERE id = $1`, token.ID).Scan(&token.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get token created_at: %w", err)
	}

	return token, rawToken, nil
}

// Authenticate resolves a raw bearer token to its owning token record.
// Unknown and revoked tokens are indistinguishable.
func (s *TokenService) Authenticate(ctx context.Context, rawToken string) (*model.APIToken, error) {
	var t model.APIToken
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at, revoked_at FROM api_tokens WHERE token_hash = $1 AND revoked_at IS NULL`,
		hashToken(rawToken),
	).Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt, &t.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate token: %w", err)
	}
	return &t, nil
}

// Revoke invalidates a token. Revocation is permanent.
func (s *TokenService) Revoke(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = now() WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("revoke token %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves a user's tokens, including revoked ones.
func (s *TokenService) List(ctx context.Context, userID string) ([]model.APIToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, created_at, revoked_at FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.APIToken
	for rows.Next() {
		var t model.APIToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt, &t.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return tokens, nil
}

func hashToken(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
