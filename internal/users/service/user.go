package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	userserrors "rideshare/internal/users/errors"
	"rideshare/internal/users/repository"
	"rideshare/pkg/config"
	apperrors "rideshare/pkg/errors"
	"rideshare/pkg/model"
	"rideshare/pkg/sanitizer"
)

type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*model.PublicUser, error)
	AuthenticateByMAC(ctx context.Context, macAddress string) (*model.PublicUser, error)
	RegisterMAC(ctx context.Context, username, macAddress string) error
}

type userService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewUserService(repo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*model.PublicUser, error) {
	username = sanitizer.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, apperrors.InvalidInput("Username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if !credentialsMatch(user.Password, password) {
		s.cfg.Log.Warn("Password mismatch on login", "username", username)
		return nil, apperrors.Wrap(userserrors.ErrWrongPassword,
			apperrors.CodeUnauthorized, "Incorrect password.", http.StatusUnauthorized)
	}

	s.cfg.Log.Info("User authenticated", "username", username, "role", user.Role)
	return user.Public(), nil
}

func (s *userService) AuthenticateByMAC(ctx context.Context, macAddress string) (*model.PublicUser, error) {
	macAddress = sanitizer.NormalizeMAC(macAddress)
	if macAddress == "" {
		return nil, apperrors.InvalidInput("A valid MAC address is required")
	}

	user, err := s.repo.FindByMAC(ctx, macAddress)
	if err != nil {
		if errors.Is(err, userserrors.ErrMACNotRegistered) {
			return nil, apperrors.Unauthorized("ERROR: Bluetooth device is not registered to a user")
		}
		return nil, apperrors.Internal("Failed to look up user by mac address", err)
	}

	s.cfg.Log.Info("User authenticated via bluetooth", "username", user.Username)
	return user.Public(), nil
}

func (s *userService) RegisterMAC(ctx context.Context, username, macAddress string) error {
	username = sanitizer.NormalizeUsername(username)
	macAddress = sanitizer.NormalizeMAC(macAddress)
	if username == "" || macAddress == "" {
		return apperrors.InvalidInput("Username and a valid MAC address are required")
	}

	if err := s.repo.SetMAC(ctx, username, macAddress); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		return apperrors.Internal("Failed to register mac address", err)
	}

	s.cfg.Log.Info("Bluetooth device registered", "username", username)
	return nil
}

// credentialsMatch compares the stored secret against the presented one in
// constant time. Hashing of the stored secret is the account provisioning
// side's concern.
func credentialsMatch(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
