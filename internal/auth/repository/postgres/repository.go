package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jsricop/vitalgo-co/internal/auth/domain"
)

// PgxIface covers what the repository needs from a pgxpool.Pool so that pgxmock
// can stand in during tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, user_type, is_verified,
		       failed_login_attempts, locked_until, last_login, created_at, updated_at`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.UserType, &user.IsVerified,
		&user.FailedLoginAttempts, &user.LockedUntil, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET last_login = now(), updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// IncrementFailedAttempts relies on a single UPDATE ... RETURNING so concurrent
// failed logins for the same account cannot race past the lockout threshold.
func (r *PostgresRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE users SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts
	`, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return attempts, nil
}

func (r *PostgresRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET failed_login_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}

	return nil
}

func (r *PostgresRepository) LockAccount(ctx context.Context, id string, until time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET locked_until = $2, updated_at = now()
		WHERE id = $1
	`, id, until)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetPatientByUserID(ctx context.Context, userID string) (*domain.Patient, error) {
	var patient domain.Patient
	err := r.db.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, profile_completed, mandatory_fields_completed
		FROM patients
		WHERE user_id = $1
		LIMIT 1;
	`, userID).Scan(&patient.UserID, &patient.FirstName, &patient.LastName,
		&patient.ProfileCompleted, &patient.MandatoryFieldsCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}

const sessionColumns = `id, user_id, session_token, refresh_token, expires_at, refresh_expires_at,
		       created_at, last_accessed, ip_address, user_agent, is_active, remember_me`

func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id, session_token, refresh_token, expires_at, refresh_expires_at,
			created_at, last_accessed, ip_address, user_agent, is_active, remember_me)
		VALUES ($1, $2, $3, $4, $5, now(), now(), $6, $7, $8, $9)
		RETURNING id
	`, s.UserID, s.SessionToken, s.RefreshToken, s.ExpiresAt, s.RefreshExpiresAt,
		s.IPAddress, s.UserAgent, s.IsActive, s.RememberMe).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE session_token = $1 AND is_active = true
		LIMIT 1;
	`
	return r.scanSession(r.db.QueryRow(ctx, query, token))
}

func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE refresh_token = $1 AND is_active = true
		LIMIT 1;
	`
	return r.scanSession(r.db.QueryRow(ctx, query, token))
}

func (r *PostgresRepository) scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.SessionToken, &s.RefreshToken, &s.ExpiresAt, &s.RefreshExpiresAt,
		&s.CreatedAt, &s.LastAccessed, &s.IPAddress, &s.UserAgent, &s.IsActive, &s.RememberMe)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, id int64, accessToken string, refreshToken *string,
	expiresAt time.Time, refreshExpiresAt *time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_sessions
		SET session_token = $2, refresh_token = $3, expires_at = $4, refresh_expires_at = $5,
			last_accessed = now()
		WHERE id = $1
	`, id, accessToken, refreshToken, expiresAt, refreshExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to rotate session tokens: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET is_active = false, last_accessed = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET is_active = false, last_accessed = now()
		WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	return nil
}

// SweepExpired hard-deletes rows past their access expiry regardless of the active
// flag. Revocation itself never deletes, so audit trails survive logout.
func (r *PostgresRepository) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM user_sessions WHERE expires_at <= now()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) CountActive(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_sessions
		WHERE user_id = $1 AND is_active = true AND expires_at > now()
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (email, ip_address, user_agent, success, failure_reason, user_id, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.Success,
		attempt.FailureReason, attempt.UserID)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = $1 AND success = false AND attempted_at >= $2
	`, ip, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failures by ip: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND success = false AND attempted_at >= $2
	`, email, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failures by email: %w", err)
	}

	return count, nil
}
