// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims are the fields carried by a dashboard session token.
type SessionClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	TenantID int    `json:"tenant_id"`
	DBName   string `json:"db_name"`
}

// GenerateSessionToken creates a signed JWT for an authenticated
// dashboard user.
func GenerateSessionToken(session SessionClaims, jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId":   session.UserID,
		"username": session.Username,
		"role":     session.Role,
		"tenantId": session.TenantID,
		"dbName":   session.DBName,
		"iat":      time.Now().UTC().Unix(),
		"exp":      time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// SessionFromClaims extracts the session fields from validated claims.
func SessionFromClaims(claims jwt.MapClaims) (*SessionClaims, error) {
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if username == "" || role == "" {
		return nil, errors.New("token missing session fields")
	}

	session := &SessionClaims{Username: username, Role: role}
	session.DBName, _ = claims["dbName"].(string)
	if v, ok := claims["userId"].(float64); ok {
		session.UserID = int(v)
	}
	if v, ok := claims["tenantId"].(float64); ok {
		session.TenantID = int(v)
	}
	return session, nil
}
