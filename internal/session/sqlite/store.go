// Package sqlite persists the session to a local database file so a login
// survives process restarts. The stored credential is sealed with a
// configured secret before it touches disk.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openclinic/medrec/pkg/authsdk"
	"github.com/openclinic/medrec/pkg/cryptox"
)

// Store implements authsdk.SessionStore on a single-row sqlite table. The
// credential and user projection are written in one transaction so they
// never diverge, and every write bumps a generation counter that guards
// against a logout racing an in-flight refresh.
type Store struct {
	db     *sql.DB
	secret []byte
	dsn    string
}

// NewStore opens (or creates) the database at dsn. secret seals the stored
// credential; it must not be empty.
func NewStore(dsn string, secret []byte) (*Store, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session store requires a sealing secret")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A local session file has exactly one writer worth of traffic.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, secret: secret, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) State(ctx context.Context) (authsdk.SessionState, error) {
	var (
		sealed   []byte
		userJSON string
		gen      uint64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT token, user_json, generation FROM session WHERE id = 1`)
	if err := row.Scan(&sealed, &userJSON, &gen); err != nil {
		return authsdk.SessionState{}, fmt.Errorf("read session: %w", err)
	}

	st := authsdk.SessionState{Generation: gen}
	if len(sealed) == 0 {
		return st, nil
	}

	token, err := cryptox.Open(s.secret, sealed)
	if err != nil {
		return authsdk.SessionState{}, fmt.Errorf("unseal session token: %w", err)
	}
	st.Token = string(token)

	if userJSON != "" {
		var user authsdk.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return authsdk.SessionState{}, fmt.Errorf("decode session user: %w", err)
		}
		st.User = &user
	}

	return st, nil
}

func (s *Store) Write(ctx context.Context, expect *uint64, token string, user *authsdk.User) error {
	sealed, err := cryptox.Seal(s.secret, []byte(token))
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}

	userJSON := ""
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		userJSON = string(raw)
	}

	return s.update(ctx, expect, sealed, userJSON)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.update(ctx, nil, []byte{}, "")
}

// update applies the (token, user) pair in one transaction, checking the
// generation guard under the same transaction that bumps it.
func (s *Store) update(ctx context.Context, expect *uint64, sealed []byte, userJSON string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	var gen uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT generation FROM session WHERE id = 1`).Scan(&gen); err != nil {
		return fmt.Errorf("read session generation: %w", err)
	}

	if expect != nil && *expect != gen {
		return authsdk.ErrStaleWrite
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE session SET token = ?, user_json = ?, generation = ?, updated_at = ? WHERE id = 1`,
		sealed, userJSON, gen+1, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	return tx.Commit()
}
