package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/models"
)

// ProfileDirectory is the subset of the profile repository the auth service
// needs to verify credentials.
type ProfileDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
}

// Service verifies email/password credentials against the profile directory
// and mints session tokens.
type Service struct {
	profiles ProfileDirectory
	secret   []byte
	validity time.Duration
}

func NewService(profiles ProfileDirectory, secret []byte, validity time.Duration) *Service {
	return &Service{profiles: profiles, secret: secret, validity: validity}
}

// SignIn checks the password against the stored bcrypt hash and returns a
// session token plus the user id. Unknown emails and wrong passwords both
// map to ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, string, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", common.ErrInvalidCredentials
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", "", common.ErrInvalidCredentials
	}

	token, err := GenerateToken(profile.UserID, s.secret, s.validity)
	if err != nil {
		return "", "", err
	}

	return token, profile.UserID, nil
}

// UserID verifies a previously issued token and returns the caller identity.
func (s *Service) UserID(token string) (string, error) {
	return GetUserIDFromToken(token, s.secret)
}
