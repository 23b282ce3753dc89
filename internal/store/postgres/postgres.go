// Package postgres implements the user repository on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/latsic/idbridge/internal/core"
)

// pq error code for unique_violation; the (provider, subject) unique index
// turns it into ErrDuplicateLogin.
const codeUniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id text PRIMARY KEY,
    user_name text NOT NULL DEFAULT '',
    normalized_user_name text NOT NULL DEFAULT '',
    security_stamp text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_claims (
    id bigserial PRIMARY KEY,
    user_id text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    claim_type text NOT NULL,
    claim_value text NOT NULL,
    value_type text NOT NULL DEFAULT '',
    issuer text NOT NULL DEFAULT '',
    original_issuer text NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS user_claims_user_id_idx
ON user_claims (user_id);

CREATE TABLE IF NOT EXISTS user_logins (
    user_id text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    provider text NOT NULL,
    subject_id text NOT NULL,
    display_name text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT user_logins_provider_subject_unique
        UNIQUE (provider, subject_id)
);

CREATE INDEX IF NOT EXISTS user_logins_user_id_idx
ON user_logins (user_id);
`

// UserStore is the PostgreSQL-backed core.UserRepository. The unique index on
// (provider, subject_id) is the authority against double provisioning: a lost
// race surfaces as ErrDuplicateLogin at AddLogin or Commit.
type UserStore struct {
	db *sql.DB
}

var _ core.UserRepository = (*UserStore)(nil)

// Open connects to the database, verifies the connection and bootstraps the
// schema.
func Open(ctx context.Context, dsn string) (*UserStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &UserStore{db: db}, nil
}

func (s *UserStore) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return &pgTx{tx: tx}, nil
}

func (s *UserStore) Close() error {
	return s.db.Close()
}

type pgTx struct {
	tx *sql.Tx
}

var _ core.Tx = (*pgTx)(nil)

func (t *pgTx) FindByLogin(ctx context.Context, provider, subjectID string) (*core.LocalUser, error) {
	var user core.LocalUser
	err := t.tx.QueryRowContext(ctx, `
		SELECT u.id, u.user_name, u.normalized_user_name, u.security_stamp
		FROM users u
		JOIN user_logins l ON l.user_id = u.id
		WHERE l.provider = $1
		  AND l.subject_id = $2
	`, provider, subjectID).Scan(&user.ID, &user.UserName, &user.NormalizedUserName, &user.SecurityStamp)
	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, wrapPQ(err)
	}
	return &user, nil
}

func (t *pgTx) CreateUser(ctx context.Context, user *core.LocalUser) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO users (id, user_name, normalized_user_name, security_stamp)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.UserName, user.NormalizedUserName, user.SecurityStamp)
	return wrapPQ(err)
}

func (t *pgTx) UpdateUser(ctx context.Context, user *core.LocalUser) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE users
		SET user_name = $2,
		    normalized_user_name = $3,
		    security_stamp = $4,
		    updated_at = NOW()
		WHERE id = $1
	`, user.ID, user.UserName, user.NormalizedUserName, user.SecurityStamp)
	return wrapPQ(err)
}

func (t *pgTx) Claims(ctx context.Context, userID string) ([]core.UserClaim, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT claim_type, claim_value, value_type, issuer, original_issuer
		FROM user_claims
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, wrapPQ(err)
	}
	defer rows.Close()

	var claims []core.UserClaim
	for rows.Next() {
		uc := core.UserClaim{UserID: userID}
		if err := rows.Scan(&uc.Type, &uc.Value, &uc.ValueType, &uc.Issuer, &uc.OriginalIssuer); err != nil {
			return nil, wrapPQ(err)
		}
		claims = append(claims, uc)
	}
	return claims, wrapPQ(rows.Err())
}

func (t *pgTx) RemoveClaims(ctx context.Context, userID string, claims []core.UserClaim) error {
	for _, uc := range claims {
		_, err := t.tx.ExecContext(ctx, `
			DELETE FROM user_claims
			WHERE user_id = $1
			  AND claim_type = $2
			  AND claim_value = $3
			  AND issuer = $4
		`, userID, uc.Type, uc.Value, uc.Issuer)
		if err != nil {
			return wrapPQ(err)
		}
	}
	return nil
}

func (t *pgTx) AddClaims(ctx context.Context, userID string, claims []core.UserClaim) error {
	for _, uc := range claims {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO user_claims (user_id, claim_type, claim_value, value_type, issuer, original_issuer)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, uc.Type, uc.Value, uc.ValueType, uc.Issuer, uc.OriginalIssuer)
		if err != nil {
			return wrapPQ(err)
		}
	}
	return nil
}

func (t *pgTx) Logins(ctx context.Context, userID string) ([]core.LoginBinding, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT user_id, provider, subject_id, display_name
		FROM user_logins
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, wrapPQ(err)
	}
	defer rows.Close()

	var bindings []core.LoginBinding
	for rows.Next() {
		var b core.LoginBinding
		if err := rows.Scan(&b.UserID, &b.Provider, &b.SubjectID, &b.DisplayName); err != nil {
			return nil, wrapPQ(err)
		}
		bindings = append(bindings, b)
	}
	return bindings, wrapPQ(rows.Err())
}

func (t *pgTx) AddLogin(ctx context.Context, binding core.LoginBinding) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO user_logins (user_id, provider, subject_id, display_name)
		VALUES ($1, $2, $3, $4)
	`, binding.UserID, binding.Provider, binding.SubjectID, binding.DisplayName)
	return wrapPQ(err)
}

func (t *pgTx) Commit() error {
	return wrapPQ(t.tx.Commit())
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}

// wrapPQ maps driver errors onto the repository's error vocabulary. Unique
// violations become ErrDuplicateLogin; everything else is a storage failure.
func wrapPQ(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == codeUniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrDuplicateLogin, pqErr.Constraint)
	}
	return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
}
