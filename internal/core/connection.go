package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/dbvault/internal/crypto"
	"github.com/edvin/dbvault/internal/model"
	"github.com/edvin/dbvault/internal/pgdump"
	"github.com/edvin/dbvault/internal/platform"
)

const connectionColumns = `id, user_id, name, host, port, database_name, username, password_encrypted, ssl_mode, db_type, is_active, last_connected_at, created_at, updated_at`

// ConnectionService manages stored database connections. The plaintext
// password is encrypted on the way in and never read back out of this
// service; Test decrypts it transiently to probe the target.
type ConnectionService struct {
	db     DB
	cipher *crypto.Cipher

	probe ProbeFunc
}

// ProbeFunc dials a target database and returns its identity facts.
type ProbeFunc func(ctx context.Context, params pgdump.ConnectParams) (*pgdump.ServerInfo, error)

func NewConnectionService(db DB, cipher *crypto.Cipher) *ConnectionService {
	return NewConnectionServiceWithProbe(db, cipher, pgdump.Probe)
}

// NewConnectionServiceWithProbe constructs the service with a custom probe
// dialer.
func NewConnectionServiceWithProbe(db DB, cipher *crypto.Cipher, probe ProbeFunc) *ConnectionService {
	return &ConnectionService{db: db, cipher: cipher, probe: probe}
}

// Create encrypts the password and stores the connection.
func (s *ConnectionService) Create(ctx context.Context, conn *model.Connection, password string) error {
	encrypted, err := s.cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	conn.ID = platform.NewID()
	conn.PasswordEncrypted = encrypted
	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	if conn.DBType == "" {
		conn.DBType = model.DBTypePostgreSQL
	}
	if conn.SSLMode == "" {
		conn.SSLMode = "require"
	}
	conn.IsActive = true

	_, err = s.db.Exec(ctx,
		`INSERT INTO database_connections (id, user_id, name, host, port, database_name, username, password_encrypted, ssl_mode, db_type, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		conn.ID, conn.UserID, conn.Name, conn.Host, conn.Port, conn.DatabaseName, conn.Username,
		conn.PasswordEncrypted, conn.SSLMode, conn.DBType, conn.IsActive, conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// GetByID retrieves a connection scoped to its owner.
func (s *ConnectionService) GetByID(ctx context.Context, userID, id string) (*model.Connection, error) {
	var c model.Connection
	err := s.db.QueryRow(ctx,
		`SELECT `+connectionColumns+` FROM database_connections WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Host, &c.Port, &c.DatabaseName, &c.Username,
		&c.PasswordEncrypted, &c.SSLMode, &c.DBType, &c.IsActive, &c.LastConnectedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}
	return &c, nil
}

// ListByUser retrieves a user's connections with cursor-based pagination.
func (s *ConnectionService) ListByUser(ctx context.Context, userID string, limit int, cursor string) ([]model.Connection, bool, error) {
	query := `SELECT ` + connectionColumns + ` FROM database_connections WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []model.Connection
	for rows.Next() {
		var c model.Connection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Host, &c.Port, &c.DatabaseName, &c.Username,
			&c.PasswordEncrypted, &c.SSLMode, &c.DBType, &c.IsActive, &c.LastConnectedAt,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate connections: %w", err)
	}

	hasMore := len(conns) > limit
	if hasMore {
		conns = conns[:limit]
	}
	return conns, hasMore, nil
}

// Update modifies a connection's mutable fields. A nil password keeps the
// stored credential; a non-nil one is re-encrypted and replaces it.
func (s *ConnectionService) Update(ctx context.Context, conn *model.Connection, password *string) error {
	if password != nil {
		encrypted, err := s.cipher.Encrypt(*password)
		if err != nil {
			return fmt.Errorf("encrypt credential: %w", err)
		}
		conn.PasswordEncrypted = encrypted
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE database_connections
		 SET name = $1, host = $2, port = $3, database_name = $4, username = $5, password_encrypted = $6, ssl_mode = $7, is_active = $8, updated_at = now()
		 WHERE id = $9 AND user_id = $10`,
		conn.Name, conn.Host, conn.Port, conn.DatabaseName, conn.Username,
		conn.PasswordEncrypted, conn.SSLMode, conn.IsActive, conn.ID, conn.UserID,
	)
	if err != nil {
		return fmt.Errorf("update connection %s: %w", conn.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a connection. Schedules and history rows reference it with
// ON DELETE CASCADE / SET NULL respectively, so no cleanup happens here.
func (s *ConnectionService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM database_connections WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete connection %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Test probes a stored connection with its decrypted credential and records
// the successful contact time.
func (s *ConnectionService) Test(ctx context.Context, userID, id string) (*pgdump.ServerInfo, error) {
	conn, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	password, err := s.cipher.Decrypt(conn.PasswordEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential for connection %s: %w", id, err)
	}

	info, err := s.probe(ctx, pgdump.ConnectParams{
		Host:     conn.Host,
		Port:     conn.Port,
		Database: conn.DatabaseName,
		Username: conn.Username,
		Password: password,
		SSLMode:  conn.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE database_connections SET last_connected_at = now(), updated_at = now() WHERE id = $1`, id,
	); err != nil {
		return nil, fmt.Errorf("update last_connected_at: %w", err)
	}

	return info, nil
}

// TestParams probes an unsaved connection from caller-supplied credentials.
// Nothing is persisted.
func (s *ConnectionService) TestParams(ctx context.Context, params pgdump.ConnectParams) (*pgdump.ServerInfo, error) {
	return s.probe(ctx, params)
}
