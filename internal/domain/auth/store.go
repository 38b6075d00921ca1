package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Credentials struct {
	UserID      string
	Email       string
	Role        string
	Password    string
	MFAEnabled  bool
	MFASecretEn []byte
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (Credentials, error) {
	var out Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, role, password_hash, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1 AND status = 'active'
  `, email).Scan(&out.UserID, &out.Email, &out.Role, &out.Password, &out.MFAEnabled, &out.MFASecretEn)
	return out, err
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, tokenHash string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
  `, userID, tokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RevokeSession(ctx context.Context, userID, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND token_hash = $2", userID, tokenHash)
	return err
}

func (s *Store) RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET token_hash = $1, expires_at = $2, rotated_at = now()
    WHERE user_id = $3 AND token_hash = $4
  `, newHash, expires, userID, oldHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var userID string
	if err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES ($1, $2, $3)", userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
  `, tokenHash).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	return err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token_hash = $1", tokenHash)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	if err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc); err != nil {
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}
