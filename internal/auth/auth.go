// Package auth handles credentials and partner linking.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (string, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdateUser(ctx context.Context, u core.User) error
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Login verifies the credentials. Unknown usernames and wrong passwords both
// return ErrInvalidCredentials so the response does not reveal which failed.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, core.ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, name, username, password string, role core.Role) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, core.ErrEmptyUsername
	}
	if len(password) < 8 {
		return core.User{}, core.ErrWeakPassword
	}
	if role == "" {
		role = core.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	user.ID, err = s.store.CreateUser(ctx, user)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user, nil
}

// ChangePassword rehashes after verifying the current password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return core.ErrInvalidCredentials
	}
	if len(next) < 8 {
		return core.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	return s.store.UpdateUser(ctx, user)
}

// LinkPartners joins two accounts into a household. The link is symmetric:
// both records point at each other afterwards.
func (s *Service) LinkPartners(ctx context.Context, userID, partnerUsername string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	partner, err := s.store.GetUserByUsername(ctx, partnerUsername)
	if err != nil {
		return fmt.Errorf("get partner: %w", err)
	}
	if partner.ID == user.ID {
		return core.ErrSelfLink
	}

	user.PartnerID = partner.ID
	partner.PartnerID = user.ID
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.store.UpdateUser(ctx, partner); err != nil {
		return fmt.Errorf("update partner: %w", err)
	}

	slog.InfoContext(ctx, "Partners linked", "user_id", user.ID, "partner_id", partner.ID)
	return nil
}

// SetAccountingStart moves the user's accounting cutoff. Records dated
// before it stop counting toward balances.
func (s *Service) SetAccountingStart(ctx context.Context, userID string, start time.Time) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	user.AccountingStartDate = start
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	slog.InfoContext(ctx, "Accounting start updated",
		"user_id", userID, "start", start.Format(time.DateOnly))
	return nil
}
