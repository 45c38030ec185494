// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

// purgeGrace keeps expired tokens around briefly so a late refresh still
// reports expiry rather than an unknown token.
const purgeGrace = 24 * time.Hour

type UserInfo struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	TokenVersion int
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, displayName, role string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type TokenIssuer interface {
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error)
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*middleware.AccessTokenClaims, error)
	AccessTokenTTL() time.Duration
}

// TxRunner runs fn against a repository bound to a single transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

type sqlxTxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner {
	return &sqlxTxRunner{db: db}
}

func (r *sqlxTxRunner) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

type ServiceConfig struct {
	Repo      Repository
	Tx        TxRunner
	Tokens    TokenIssuer
	Users     UserProvider
	Blacklist Blacklist
	Logger    *slog.Logger
	Now       func() time.Time
}

type Service struct {
	repo      Repository
	tx        TxRunner
	tokens    TokenIssuer
	users     UserProvider
	blacklist Blacklist
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		tx:        cfg.Tx,
		tokens:    cfg.Tokens,
		users:     cfg.Users,
		blacklist: cfg.Blacklist,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if s.blacklist == nil {
		s.blacklist = noBlacklist{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// VerifyAccessToken accepts a token whose signature holds, whose jti was
// not logged out and whose version is not behind the user's.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.JTI != "" {
		listed, err := s.blacklist.Contains(ctx, claims.JTI)
		if err != nil {
			s.logger.Warn("token blacklist unavailable, skipping check", "error", err)
		}
		if listed {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	case err != nil:
		return nil, fmt.Errorf("verify token: %w", err)
	case claims.TokenVersion < u.TokenVersion:
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("login: %w", err)
	}

	var stored *string
	if u != nil {
		stored = &u.PasswordHash
	}

	ok, rehashed, err := core.VerifyPasswordTimingSafe(req.Password, stored)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if rehashed != "" {
		if err := s.users.UpdatePassword(ctx, u.ID, rehashed); err != nil {
			s.logger.Warn("password rehash not saved", "user_id", u.ID, "error", err)
		}
	}

	return s.openSession(ctx, u, userAgent, ipAddress)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u, err := s.users.Create(ctx, req.Email, hash, req.DisplayName, req.Role)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)

	return s.openSession(ctx, u, userAgent, ipAddress)
}

// Refresh exchanges a live refresh token for a new pair. Presenting a token
// that was already exchanged revokes its whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	current, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	switch current.State(s.now()) {
	case TokenUsed:
		return nil, s.revokeFamily(ctx, current)
	case TokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case TokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	case TokenActive:
	}

	u, err := s.users.GetByID(ctx, current.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	var resp *AuthResponse
	err = s.tx.WithinTx(ctx, func(repo Repository) error {
		next, pair, err := s.issue(ctx, repo, u, current.FamilyID, userAgent, ipAddress)
		if err != nil {
			return err
		}
		if err := repo.Claim(ctx, current.ID, next.ID); err != nil {
			return err
		}
		resp = pair
		return nil
	})
	if errors.Is(err, ErrTokenReuse) {
		return nil, s.revokeFamily(ctx, current)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return resp, nil
}

func (s *Service) revokeFamily(ctx context.Context, t *RefreshToken) error {
	n, err := s.repo.Revoke(ctx, ScopeFamily, t.FamilyID)
	if err != nil {
		s.logger.Error("revoke token family failed",
			"user_id", t.UserID,
			"family_id", t.FamilyID,
			"error", err,
		)
	}
	s.logger.Warn("refresh token reuse detected",
		"user_id", t.UserID,
		"family_id", t.FamilyID,
		"revoked", n,
	)
	return ErrTokenReuse
}

// Logout revokes the presented refresh token and blacklists the access
// token that authorized the call. Unknown refresh tokens are ignored.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	t, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return fmt.Errorf("logout: %w", err)
	case t.UserID != claims.UserID:
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	default:
		if _, err := s.repo.Revoke(ctx, ScopeToken, t.ID); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}

	if claims.JTI != "" {
		if err := s.blacklist.Add(ctx, claims.JTI, claims.ExpiresAt); err != nil {
			s.logger.Warn("access token not blacklisted", "error", err)
		}
	}
	return nil
}

// LogoutAll revokes every refresh token of the user and bumps the token
// version so outstanding access tokens stop verifying.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if _, err := s.repo.Revoke(ctx, ScopeUser, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActive(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for i := range tokens {
		sessions = append(sessions, tokens[i].Session())
	}
	return sessions, nil
}

// RevokeSession ends one of the caller's sessions. Sessions of other users
// are reported as missing.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	t, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if t.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	n, err := s.repo.Revoke(ctx, ScopeToken, t.ID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}
	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := core.VerifyPassword(currentPassword, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

func (s *Service) openSession(
	ctx context.Context,
	u *UserInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	_, resp, err := s.issue(ctx, s.repo, u, "", userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// issue signs an access token and stores a new refresh token in familyID,
// starting a family when familyID is empty.
func (s *Service) issue(
	ctx context.Context,
	repo Repository,
	u *UserInfo,
	familyID, userAgent, ipAddress string,
) (*RefreshToken, *AuthResponse, error) {
	access, err := s.tokens.CreateAccessToken(AccessTokenClaims{
		UserID:       u.ID,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	data, err := s.tokens.CreateRefreshToken(u.ID, familyID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	stored := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: data.Hash,
		FamilyID:  data.FamilyID,
		ExpiresAt: data.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := repo.Insert(ctx, stored); err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	ttl := s.tokens.AccessTokenTTL()
	return stored, &AuthResponse{
		User: toUserResponse(u),
		Tokens: TokenResponse{
			AccessToken:  access,
			RefreshToken: data.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    s.now().Add(ttl),
		},
	}, nil
}

// PruneExpiredTokens deletes long expired refresh tokens every interval
// until ctx is cancelled.
func (s *Service) PruneExpiredTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.Purge(ctx, s.now().Add(-purgeGrace))
			if err != nil {
				s.logger.Warn("prune expired refresh tokens failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("pruned expired refresh tokens", "count", n)
			}
		}
	}
}
