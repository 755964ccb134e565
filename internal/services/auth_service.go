package services

import (
	"crypto/subtle"

	"go.uber.org/zap"
)

// authService checks the single configured admin credential pair
type authService struct {
	login    string
	password string
	logger   *zap.Logger
}

// NewAuthService creates a new admin auth service
func NewAuthService(login, password string, logger *zap.Logger) *authService {
	return &authService{
		login:    login,
		password: password,
		logger:   logger,
	}
}

// Authenticate reports whether the credentials match the configured admin pair.
// Both values are compared in constant time; an unconfigured pair never matches.
func (s *authService) Authenticate(login, password string) bool {
	if s.login == "" || s.password == "" {
		s.logger.Warn("admin credentials are not configured")
		return false
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(s.login))
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password))
	if loginOK&passwordOK != 1 {
		s.logger.Warn("failed admin login attempt")
		return false
	}
	return true
}
