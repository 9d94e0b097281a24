package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrIdentityNotFound signals that no identity matches the lookup key.
	ErrIdentityNotFound = errors.New("identity: not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("identity: email already exists")
	// ErrTokenNotFound signals that no identity holds the verification token.
	ErrTokenNotFound = errors.New("identity: verification token not found")
)

// Repository handles data access for identity records. Mutations and locked
// reads run inside a caller-owned transaction so that concurrent verify and
// resend calls against the same identity serialize on the row lock.
type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	GetByID(ctx context.Context, id string) (Identity, error)
	LockByEmail(ctx context.Context, tx pgx.Tx, email string) (Identity, error)
	LockByToken(ctx context.Context, tx pgx.Tx, token string) (Identity, error)
	MarkVerified(ctx context.Context, tx pgx.Tx, id string) (Identity, error)
	ReplaceToken(ctx context.Context, tx pgx.Tx, id, token string, expiresAt time.Time) (Identity, error)
}

// InsertParams contains write parameters for creating identities.
type InsertParams struct {
	Email             string
	DisplayName       string
	PasswordHash      string
	Role              Role
	VerificationToken string
	TokenExpiresAt    time.Time
}

const identityColumns = `id, email, display_name, password_hash, role, is_email_verified, verification_token, verification_token_expires_at, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed identity repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert creates a new unverified identity with an outstanding token.
func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Identity, error) {
	insertSQL := `
		INSERT INTO identities (email, display_name, password_hash, role, verification_token, verification_token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + identityColumns

	ident, err := scanIdentity(tx.QueryRow(ctx, insertSQL,
		params.Email, params.DisplayName, params.PasswordHash, params.Role,
		params.VerificationToken, params.TokenExpiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Identity{}, ErrDuplicateEmail
		}
		return Identity{}, fmt.Errorf("identity: insert: %w", err)
	}

	return ident, nil
}

// GetByEmail retrieves an identity by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (Identity, error) {
	selectSQL := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`

	ident, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: get by email: %w", err)
	}

	return ident, nil
}

// GetByID retrieves an identity by ID.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Identity, error) {
	selectSQL := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

	ident, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: get by id: %w", err)
	}

	return ident, nil
}

// LockByEmail retrieves an identity by email and locks its row for the
// duration of the transaction.
func (r *PGRepository) LockByEmail(ctx context.Context, tx pgx.Tx, email string) (Identity, error) {
	selectSQL := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1 FOR UPDATE`

	ident, err := scanIdentity(tx.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: lock by email: %w", err)
	}

	return ident, nil
}

// LockByToken retrieves an identity by exact verification-token match and
// locks its row for the duration of the transaction.
func (r *PGRepository) LockByToken(ctx context.Context, tx pgx.Tx, token string) (Identity, error) {
	selectSQL := `SELECT ` + identityColumns + ` FROM identities WHERE verification_token = $1 FOR UPDATE`

	ident, err := scanIdentity(tx.QueryRow(ctx, selectSQL, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrTokenNotFound
		}
		return Identity{}, fmt.Errorf("identity: lock by token: %w", err)
	}

	return ident, nil
}

// MarkVerified flips the verified flag and clears the token pair.
func (r *PGRepository) MarkVerified(ctx context.Context, tx pgx.Tx, id string) (Identity, error) {
	updateSQL := `
		UPDATE identities
		SET is_email_verified = TRUE,
		    verification_token = NULL,
		    verification_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + identityColumns

	ident, err := scanIdentity(tx.QueryRow(ctx, updateSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: mark verified: %w", err)
	}

	return ident, nil
}

// ReplaceToken overwrites the outstanding token pair with a fresh one,
// invalidating whatever token was there before.
func (r *PGRepository) ReplaceToken(ctx context.Context, tx pgx.Tx, id, token string, expiresAt time.Time) (Identity, error) {
	updateSQL := `
		UPDATE identities
		SET verification_token = $2,
		    verification_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + identityColumns

	ident, err := scanIdentity(tx.QueryRow(ctx, updateSQL, id, token, expiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: replace token: %w", err)
	}

	return ident, nil
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var (
		ident     Identity
		token     *string
		expiresAt *time.Time
	)
	err := row.Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&ident.PasswordHash,
		&ident.Role,
		&ident.EmailVerified,
		&token,
		&expiresAt,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err != nil {
		return Identity{}, err
	}

	ident.VerificationToken = token
	ident.VerificationTokenExpiresAt = expiresAt
	return ident, nil
}
