package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"billetdash/models"
	"billetdash/services"
	"billetdash/storage"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
)

const maxSessions = 3

// findSheetUser resolves a username against the Login sheet. The sheet
// is the only user store, so every login round-trips to it.
func findSheetUser(c *gin.Context, svc *services.SheetsService, cfg models.TableConfig, username string) (*models.User, error) {
	ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
	defer cancel()

	rows, err := svc.FetchTable(ctx, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	users, _ := services.ExtractUsers(rows, cfg)
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate against the Login sheet and return session tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/login [post]
func LoginHandler(db *sql.DB, svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := findSheetUser(c, svc, cfg.Login, loginData.Username)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach the Login sheet", "details": err.Error()})
			return
		}
		if user == nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		// Check device count before generating any tokens. No device is
		// logged out automatically; the user must free a slot themselves.
		sessionCount, err := storage.GetUserSessionCount(db, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check active sessions", "details": err.Error()})
			return
		}
		if sessionCount >= maxSessions {
			devices, err := storage.GetActiveDevices(db, user.Username)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active devices", "details": err.Error()})
				return
			}
			c.JSON(http.StatusConflict, gin.H{
				"error":           "Maximum device limit reached",
				"message":         "You have reached the maximum limit of 3 active devices. Please logout from one device to continue.",
				"max_devices":     maxSessions,
				"current_devices": sessionCount,
				"active_devices":  devices,
				"requires_logout": true,
			})
			return
		}

		newToken, err := utils.GenerateJWT(user.Username, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		refreshToken, err := utils.GenerateRefreshToken(user.Username, newToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
			return
		}

		session := &models.Session{
			Username:              user.Username,
			SessionID:             newToken,
			HostName:              c.Request.UserAgent(),
			IPAddress:             clientIP(c, loginData.IP),
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(15 * time.Minute),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}

		if err := storage.SaveSession(db, session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
			return
		}

		if logErr := storage.LogChange(db, user.Username, cfg.Login.Sheet, "login", "", session.IPAddress); logErr != nil {
			// The login itself succeeded; the missing audit row is not
			// worth failing the request over.
			_ = logErr
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Login successful",
			"access_token":  newToken,
			"refresh_token": refreshToken,
			"role":          user.Role,
			"permissions":   user.Permission,
			"expires_in":    900,
		})
	}
}

func clientIP(c *gin.Context, declared string) string {
	if declared != "" {
		return declared
	}
	return c.ClientIP()
}

// GetActiveDevicesHandler returns all active devices for the authenticated user
// @Summary Get active devices
// @Description Get list of all active devices/sessions for the current user
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/active-devices [get]
func GetActiveDevicesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		if username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		devices, err := storage.GetActiveDevices(db, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active devices", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":        "Active devices retrieved successfully",
			"active_devices": devices,
			"device_count":   len(devices),
		})
	}
}

// LogoutDeviceHandler logs out a specific device by session_id
// @Summary Logout specific device
// @Description Logout a specific device by providing its session_id
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body map[string]string true "Session ID to logout"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout-device [post]
func LogoutDeviceHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		if username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var requestData struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&requestData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if err := storage.DeleteSessionByID(db, requestData.SessionID, username); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found", "details": err.Error()})
			return
		}

		_ = storage.DeleteRefreshToken(db, requestData.SessionID)

		c.JSON(http.StatusOK, gin.H{
			"message":    "Device logged out successfully",
			"session_id": requestData.SessionID,
		})
	}
}

// LogoutHandler ends the calling session.
// @Summary Logout
// @Description Logout the current session
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout [post]
func LogoutHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		sessionID := c.GetString("session_id")
		if username == "" || sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		if err := storage.DeleteSessionByID(db, sessionID, username); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// RefreshTokenHandler handles refresh token requests to get new access tokens
// @Summary Refresh access token
// @Description Exchange refresh token for a new access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body object true "Refresh token request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh-token [post]
func RefreshTokenHandler(db *sql.DB, svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var refreshRequest struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&refreshRequest); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required"})
			return
		}

		claims, authErr := tokenClaims(refreshRequest.RefreshToken)
		if authErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token type"})
			return
		}

		username, ok := claims["username"].(string)
		if !ok || username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Username claim missing or invalid"})
			return
		}

		user, err := findSheetUser(c, svc, cfg.Login, username)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach the Login sheet", "details": err.Error()})
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
			return
		}

		// Look up the session by the refresh token itself: the session_id
		// column holds the access token and changes on every refresh.
		var refreshTokenExpiresAt time.Time
		err = db.QueryRow(`
			SELECT refresh_token_expires_at FROM session
			WHERE refresh_token = $1 AND username = $2 AND refresh_token_expires_at > NOW()`,
			refreshRequest.RefreshToken, user.Username).Scan(&refreshTokenExpiresAt)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found, expired, or refresh token mismatch"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session", "details": err.Error()})
			}
			return
		}

		newAccessToken, err := utils.GenerateJWT(user.Username, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
			return
		}

		// Rotate the refresh token only when it expires within a day;
		// otherwise each refresh would invalidate other tabs mid-flight.
		now := time.Now()
		rotate := refreshTokenExpiresAt.Sub(now) < 24*time.Hour
		newRefreshToken := refreshRequest.RefreshToken

		if rotate {
			newRefreshToken, err = utils.GenerateRefreshToken(user.Username, newAccessToken)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
				return
			}
			_, err = db.Exec(`
				UPDATE session
				SET session_id = $1, expires_at = $2, timestp = $3, refresh_token = $4, refresh_token_expires_at = $5
				WHERE refresh_token = $6 AND username = $7`,
				newAccessToken, now.Add(15*time.Minute), now, newRefreshToken, now.Add(15*24*time.Hour), refreshRequest.RefreshToken, user.Username)
		} else {
			_, err = db.Exec(`
				UPDATE session
				SET session_id = $1, expires_at = $2, timestp = $3
				WHERE refresh_token = $4 AND username = $5`,
				newAccessToken, now.Add(15*time.Minute), now, refreshRequest.RefreshToken, user.Username)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Token refreshed successfully",
			"access_token":  newAccessToken,
			"refresh_token": newRefreshToken,
			"role":          user.Role,
			"permissions":   user.Permission,
			"expires_in":    900,
		})
	}
}
