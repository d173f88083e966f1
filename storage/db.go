package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"billetdash/models"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Set connection pool settings optimized for light server load
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// SaveSession inserts a new session for a user. User accounts live in
// the Login sheet, so sessions are keyed by username rather than a
// local user id.
func SaveSession(db *sql.DB, session *models.Session) error {
	insertQuery := `INSERT INTO session (username, session_id, host_name, ip_address, timestp, expires_at, refresh_token, refresh_token_expires_at)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(insertQuery, session.Username, session.SessionID, session.HostName, session.IPAddress, session.Timestamp, session.ExpiresAt, session.RefreshToken, session.RefreshTokenExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert new session: %v", err)
	}
	return nil
}

// SaveRefreshToken stores a refresh token bound to one session so each
// device keeps its own token.
func SaveRefreshToken(db *sql.DB, username, sessionID, refreshToken string, expiresAt time.Time) error {
	updateQuery := `UPDATE session SET refresh_token = $1, refresh_token_expires_at = $2 WHERE session_id = $3 AND username = $4`

	result, err := db.Exec(updateQuery, refreshToken, expiresAt, sessionID, username)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session not found for session_id: %s and username: %s", sessionID, username)
	}

	return nil
}

// GetRefreshTokenBySession retrieves a refresh token for a specific session
func GetRefreshTokenBySession(db *sql.DB, sessionID string) (string, error) {
	var refreshToken string
	err := db.QueryRow(`
		SELECT refresh_token FROM session
		WHERE session_id = $1 AND refresh_token_expires_at > NOW()`, sessionID).Scan(&refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token not found: %v", err)
	}
	return refreshToken, nil
}

// DeleteRefreshToken removes a refresh token for a session (for logout)
func DeleteRefreshToken(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`UPDATE session SET refresh_token = NULL, refresh_token_expires_at = NULL WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %v", err)
	}
	return nil
}

// GetSessionBySessionID looks up one session, used by the auth
// middleware to resolve the caller.
func GetSessionBySessionID(db *sql.DB, sessionID string) (*models.Session, error) {
	var session models.Session
	query := `SELECT username, session_id, host_name, ip_address, timestp, expires_at
              FROM session WHERE session_id = $1 AND expires_at > NOW()`
	err := db.QueryRow(query, sessionID).Scan(&session.Username, &session.SessionID, &session.HostName, &session.IPAddress, &session.Timestamp, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found or expired")
		}
		return nil, err
	}
	return &session, nil
}

// GetUserSessionCount returns the number of active sessions for a user
func GetUserSessionCount(db *sql.DB, username string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM session WHERE username = $1 AND expires_at > NOW()`
	err := db.QueryRow(query, username).Scan(&count)
	return count, err
}

// GetUserSessions returns all active sessions for a user
func GetUserSessions(db *sql.DB, username string) ([]models.Session, error) {
	query := `SELECT username, session_id, host_name, ip_address, timestp, expires_at
              FROM session WHERE username = $1 AND expires_at > NOW()
              ORDER BY timestp DESC`

	rows, err := db.Query(query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(&session.Username, &session.SessionID, &session.HostName, &session.IPAddress, &session.Timestamp, &session.ExpiresAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// GetActiveDevices returns active device information for a user.
// Returns session_id, ip_address, and timestamp for each active device.
func GetActiveDevices(db *sql.DB, username string) ([]map[string]interface{}, error) {
	query := `SELECT session_id, ip_address, timestp, expires_at
              FROM session
              WHERE username = $1 AND expires_at > NOW()
              ORDER BY timestp DESC`

	rows, err := db.Query(query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []map[string]interface{}
	for rows.Next() {
		var sessionID, ipAddress string
		var timestamp, expiresAt time.Time
		err := rows.Scan(&sessionID, &ipAddress, &timestamp, &expiresAt)
		if err != nil {
			return nil, err
		}
		devices = append(devices, map[string]interface{}{
			"session_id": sessionID,
			"ip_address": ipAddress,
			"login_time": timestamp,
			"expires_at": expiresAt,
		})
	}

	return devices, nil
}

// DeleteSessionByID deletes a specific session by session_id
func DeleteSessionByID(db *sql.DB, sessionID, username string) error {
	query := `DELETE FROM session WHERE session_id = $1 AND username = $2`
	result, err := db.Exec(query, sessionID, username)
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session not found or already deleted")
	}

	return nil
}

// DeleteUserSessions removes every session for a user.
func DeleteUserSessions(db *sql.DB, username string) error {
	query := `DELETE FROM session WHERE username = $1`
	_, err := db.Exec(query, username)
	return err
}

func CleanupExpiredSessions(db *sql.DB) error {
	threshold := time.Now().Add(-24 * time.Hour)
	_, err := db.Exec("DELETE FROM session WHERE expires_at < $1", threshold)
	return err
}

// LogChange records one write against the workbook (inserted row,
// updated cell, lab test marked) for the activity trail.
func LogChange(db *sql.DB, username, sheetName, changeType, oldValue, newValue string) error {
	query := `INSERT INTO user_changes (username, sheet_name, change_type, old_value, new_value) VALUES ($1, $2, $3, $4, $5)`
	_, err := db.Exec(query, username, sheetName, changeType, oldValue, newValue)
	return err
}

// GetRecentChanges returns the latest activity log entries.
func GetRecentChanges(db *sql.DB, limit int) ([]map[string]interface{}, error) {
	query := `SELECT username, sheet_name, change_type, old_value, new_value, created_at
              FROM user_changes ORDER BY created_at DESC LIMIT $1`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []map[string]interface{}
	for rows.Next() {
		var username, sheetName, changeType string
		var oldValue, newValue sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&username, &sheetName, &changeType, &oldValue, &newValue, &createdAt); err != nil {
			return nil, err
		}
		changes = append(changes, map[string]interface{}{
			"username":    username,
			"sheet_name":  sheetName,
			"change_type": changeType,
			"old_value":   oldValue.String,
			"new_value":   newValue.String,
			"created_at":  createdAt,
		})
	}

	return changes, nil
}
