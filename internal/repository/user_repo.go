package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// UserRepository define el contrato de persistencia para cuentas de usuario.
// El registro de un usuario siempre viene acompanado de la creacion de su
// Profile; ese lado vive en ProfileRepository.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	VerifyEmail(ctx context.Context, userID string, verifiedAt time.Time) error
	UpdateOTP(ctx context.Context, userID, codeHash string, expiresAt time.Time) error
	Delete(ctx context.Context, userID string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, display_name, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, display_name, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.EmailVerifiedAt,
		user.OtpCodeHash,
		user.OtpExpiresAt,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *PgUserRepository) VerifyEmail(ctx context.Context, userID string, verifiedAt time.Time) error {
	const query = `
		UPDATE users
		SET email_verified_at = $2, otp_code_hash = '', otp_expires_at = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, verifiedAt)
	return err
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, userID, codeHash string, expiresAt time.Time) error {
	const query = `UPDATE users SET otp_code_hash = $2, otp_expires_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID, codeHash, expiresAt)
	return err
}

func (r *PgUserRepository) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM users WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *PgUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.EmailVerifiedAt,
		&u.OtpCodeHash,
		&u.OtpExpiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
