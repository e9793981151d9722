package services

import (
	"context"
	"errors"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/security"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// ErrInvalidCredentials covers both unknown usernames and bad
// passwords so the login endpoint never reveals which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates dashboard users against the global user
// table and issues the session JWT that carries the tenant context
// for subsequent requests.
type AuthService struct {
	users  *globaldb.UserRepository
	logger *logging.ChanneledLogger
}

// NewAuthService creates the auth service.
func NewAuthService(users *globaldb.UserRepository, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{users: users, logger: logger}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TenantID  int    `json:"tenant_id"`
	DBName    string `json:"db_name"`
	ExpiresIn int    `json:"expires_in"`
}

// Login verifies the password against the stored Argon2id hash and
// returns a signed session token. The login lands in the audit table
// regardless of what the caller does with the token.
func (s *AuthService) Login(ctx context.Context, username, password, ipAddress, userAgent string) (*LoginResult, error) {
	user, tenantRow, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.LogAuthOperation("login", "", username, false)
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyArgon2id(password, user.PasswordHash)
	if err != nil || !ok {
		s.logger.LogAuthOperation("login", tenantRow.DBName(), username, false)
		return nil, ErrInvalidCredentials
	}

	dbName := tenantRow.DBName()
	ttl := time.Duration(config.JWTExpiryMinutes) * time.Minute

	token, err := security.GenerateSessionToken(security.SessionClaims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		TenantID: user.TenantID,
		DBName:   dbName,
	}, config.JWTSecret, ttl)
	if err != nil {
		return nil, err
	}

	s.users.RecordLogin(ctx, user.UserID, user.Username, ipAddress, userAgent)
	s.logger.LogAuthOperation("login", dbName, username, true)

	return &LoginResult{
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		TenantID:  user.TenantID,
		DBName:    dbName,
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}
