package pgdump

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Querier is the slice of pgx.Conn used for introspection and dumping.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a live connection to a target database.
type Conn interface {
	Querier
	Close(ctx context.Context) error
}

// ConnectParams describe a target database endpoint with a plaintext
// credential. The password only ever lives in memory; it must never be
// logged or persisted.
type ConnectParams struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DSN renders the params as a postgres connection URL.
func (p ConnectParams) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if p.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Connect opens a single connection to the target database.
func Connect(ctx context.Context, params ConnectParams) (Conn, error) {
	conn, err := pgx.Connect(ctx, params.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d/%s: %w", params.Host, params.Port, params.Database, err)
	}
	return conn, nil
}

// ServerInfo holds the identity facts returned by a successful probe.
type ServerInfo struct {
	Version  string `json:"version"`
	Database string `json:"database"`
	User     string `json:"user"`
}

// Probe opens a short-lived connection, runs a minimal identity query, and
// closes the connection on every exit path.
func Probe(ctx context.Context, params ConnectParams) (*ServerInfo, error) {
	conn, err := Connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	return probeConn(ctx, conn)
}

func probeConn(ctx context.Context, q Querier) (*ServerInfo, error) {
	var info ServerInfo
	err := q.QueryRow(ctx, "SELECT version(), current_database(), current_user").
		Scan(&info.Version, &info.Database, &info.User)
	if err != nil {
		return nil, fmt.Errorf("identity query: %w", err)
	}
	return &info, nil
}
