// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/auth"
	"github.com/carterperez-dev/advisory-backend/internal/core"
)

var _ auth.UserProvider = (*Service)(nil)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// The methods below satisfy auth.UserProvider.

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	return s.info(s.repo.GetByID(ctx, id))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	return s.info(s.repo.GetByEmail(ctx, normalizeEmail(email)))
}

// Create registers a client or programmer. Administrators are only ever
// promoted, never self-registered.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, displayName, role string,
) (*auth.UserInfo, error) {
	if role == "" {
		role = RoleClient
	}
	if role == RoleAdmin || !ValidRole(role) {
		return nil, fmt.Errorf("create user: role %q: %w", role, core.ErrInvalidInput)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) info(u *User, err error) (*auth.UserInfo, error) {
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	return s.modify(ctx, id, func(u *User) error {
		applyProfileUpdate(u, req)
		return nil
	})
}

func (s *Service) UpdateUserRole(ctx context.Context, id, role string) (*User, error) {
	return s.modify(ctx, id, func(u *User) error {
		if !ValidRole(role) {
			return fmt.Errorf("update role: role %q: %w", role, core.ErrInvalidInput)
		}
		u.Role = role
		return nil
	})
}

func (s *Service) modify(ctx context.Context, id string, change func(*User) error) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(u); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

// RemoveUser soft deletes targetID on behalf of actorID once CanDeleteUser
// allows it.
func (s *Service) RemoveUser(ctx context.Context, actorID, targetID string) error {
	if err := s.CanDeleteUser(ctx, actorID, targetID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, targetID)
}

// CanDeleteUser allows deleting oneself, and allows administrators to
// delete anyone but another administrator.
func (s *Service) CanDeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return nil
	}

	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("delete user: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return fmt.Errorf("delete user: target is an admin: %w", core.ErrForbidden)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(ctx context.Context, userID string, req UpdateUserRequest) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}
	return s.UpdateUser(ctx, userID, req)
}

func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}
	return s.repo.SoftDelete(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func applyProfileUpdate(u *User, req UpdateUserRequest) {
	trimmed := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	trimmed(&u.DisplayName, req.DisplayName)
	trimmed(&u.PhotoURL, req.PhotoURL)
	trimmed(&u.Specialty, req.Specialty)
	if req.Description != nil {
		u.Description = *req.Description
	}
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}
