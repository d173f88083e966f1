package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"billetdash/storage"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ValidateSession validates user session
// @Summary Validate session
// @Description Validate user session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/validate-session [post]
func ValidateSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Authorization header"})
			return
		}

		claims, err := tokenClaims(sessionToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		session, err := storage.GetSessionBySessionID(db, sessionToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		role, _ := claims["role"].(string)
		c.JSON(http.StatusOK, gin.H{
			"message":    "Session validated",
			"session_id": session.SessionID,
			"username":   session.Username,
			"role":       role,
		})
	}
}

// AuthMiddleware guards the data routes. The access token is the
// session id, so a single DB lookup confirms both signature and an
// active session.
func AuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		claims, err := tokenClaims(sessionToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		session, err := storage.GetSessionBySessionID(db, sessionToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		role, _ := claims["role"].(string)
		c.Set("username", session.Username)
		c.Set("role", role)
		c.Set("session_id", session.SessionID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", false
	}

	token := authHeader
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(token, bearerPrefix) {
		token = strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
	}
	if token == "" {
		return "", false
	}
	return token, true
}

func tokenClaims(tokenStr string) (jwt.MapClaims, error) {
	parsedToken, err := utils.ValidateJWT(tokenStr)
	if err != nil || !parsedToken.Valid {
		return nil, errInvalidToken
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Now().Unix() > int64(exp) {
		return nil, errTokenExpired
	}
	return claims, nil
}

var (
	errInvalidToken  = &authError{"Invalid or expired token"}
	errInvalidClaims = &authError{"Invalid token claims"}
	errTokenExpired  = &authError{"Token expired"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }
