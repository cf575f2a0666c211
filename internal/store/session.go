package store

import (
	"sync"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// DefaultApplicantID is used when the session has no signed-in user
const DefaultApplicantID int64 = 1

// Session is the acting user and the role they currently act as
type Session struct {
	mu   sync.RWMutex
	user entity.User
}

// NewSession starts a session for user acting as an applicant
func NewSession(user entity.User) *Session {
	if user.ID == 0 {
		user.ID = DefaultApplicantID
	}
	if user.Role == "" {
		user.Role = entity.RoleApplicant
	}
	return &Session{user: user}
}

// User returns the acting user
func (s *Session) User() entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the current role
func (s *Session) Role() entity.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Role
}

// SwitchRole changes the current role and reports whether it changed
func (s *Session) SwitchRole(role entity.UserRole) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user.Role == role {
		return false
	}
	s.user.Role = role
	return true
}
