package database

import (
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/apperr"
	"stockroom/internal/logger"
	"stockroom/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUsers makes sure every configured account exists and that its stored
// hash matches the configured secret.
func SeedUsers(db *sql.DB, credentials [][2]string) error {
	for _, cred := range credentials {
		username, password := cred[0], cred[1]
		if username == "" || password == "" {
			continue
		}

		var id int
		var hash string
		err := db.QueryRow(`SELECT id, password_hash FROM users WHERE username = ?`, username).Scan(&id, &hash)
		switch {
		case err == sql.ErrNoRows:
			if _, err := CreateUser(db, username, password); err != nil {
				return err
			}
			logger.Info("Seeded user", "username", username)
		case err != nil:
			return fmt.Errorf("failed to query user: %w", err)
		default:
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil {
				continue
			}
			if err := UpdatePassword(db, id, password); err != nil {
				return err
			}
			logger.Info("Rotated seeded user secret", "username", username)
		}
	}
	return nil
}

func CreateUser(db *sql.DB, username, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := db.Exec(`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, string(hashedPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return &models.User{
		ID:           int(id),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func UpdatePassword(db *sql.DB, userID int, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, string(hashedPassword), userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func GetUserByID(db *sql.DB, userID int) (*models.User, error) {
	user := &models.User{}
	err := db.QueryRow(`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// bcrypt only looks at the first 72 bytes of a secret.
const maxPasswordBytes = 72

// AuthenticateUser resolves a username/secret pair to its user. Both parts
// must match exactly; usernames are compared case-sensitively.
func AuthenticateUser(db *sql.DB, username, password string) (*models.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, apperr.New(apperr.CodeAuthentication, "invalid username or password")
	}

	user := &models.User{}
	err := db.QueryRow(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.CodeAuthentication, "invalid username or password")
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.New(apperr.CodeAuthentication, "invalid username or password")
	}

	return user, nil
}

func CreateSession(db *sql.DB, userID int, sessionDuration time.Duration) (*models.Session, error) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(sessionDuration),
		CreatedAt: now,
	}

	_, err := db.Exec(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func ValidateSession(db *sql.DB, sessionID string, sessionDuration time.Duration) (*models.User, error) {
	user := &models.User{}
	var expiresAt time.Time
	query := `
		SELECT u.id, u.username, u.created_at, s.expires_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.id = ?
	`

	err := db.QueryRow(query, sessionID).Scan(&user.ID, &user.Username, &user.CreatedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.CodeAuthentication, "session not found or expired")
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if !time.Now().UTC().Before(expiresAt) {
		if err := DeleteSession(db, sessionID); err != nil {
			logger.Warn("Failed to delete expired session", "session_id", sessionID, "error", err)
		}
		return nil, apperr.New(apperr.CodeAuthentication, "session not found or expired")
	}

	if err := RenewSession(db, sessionID, sessionDuration); err != nil {
		logger.Warn("Failed to renew session",
			"session_id", sessionID,
			"error", err)
	}

	return user, nil
}

func RenewSession(db *sql.DB, sessionID string, sessionDuration time.Duration) error {
	expiresAt := time.Now().UTC().Add(sessionDuration)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt, sessionID); err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}
	return nil
}

func DeleteSession(db *sql.DB, sessionID string) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func CleanupExpiredSessions(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return nil
}
