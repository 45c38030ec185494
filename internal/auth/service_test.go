// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type memoryTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *memoryTokenRepo) Insert(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memoryTokenRepo) find(match func(*RefreshToken) bool) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if match(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
}

func (r *memoryTokenRepo) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	return r.find(func(t *RefreshToken) bool { return t.TokenHash == hash })
}

func (r *memoryTokenRepo) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	return r.find(func(t *RefreshToken) bool { return t.ID == id })
}

func (r *memoryTokenRepo) Claim(_ context.Context, id, replacedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.IsUsed || t.RevokedAt != nil {
		return fmt.Errorf("claim refresh token: %w", ErrTokenReuse)
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
	return nil
}

func (r *memoryTokenRepo) Revoke(_ context.Context, scope RevokeScope, value string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for _, t := range r.tokens {
		var key string
		switch scope {
		case ScopeToken:
			key = t.ID
		case ScopeFamily:
			key = t.FamilyID
		case ScopeUser:
			key = t.UserID
		}
		if key == value && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *memoryTokenRepo) ListActive(
	_ context.Context,
	userID string,
	now time.Time,
) ([]RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []RefreshToken{}
	for _, t := range r.tokens {
		if t.UserID == userID && t.State(now) == TokenActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memoryTokenRepo) Purge(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryTokenRepo) familyRevoked(familyID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			return false
		}
	}
	return true
}

type directTx struct {
	repo Repository
}

func (d directTx) WithinTx(_ context.Context, fn func(Repository) error) error {
	return fn(d.repo)
}

type memoryBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func (b *memoryBlacklist) Add(_ context.Context, jti string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = until
	return nil
}

func (b *memoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.jtis[jti]
	return ok, nil
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*UserInfo)}
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) Create(
	_ context.Context,
	email, passwordHash, displayName, role string,
) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	if role == "" {
		role = "client"
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         role,
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].TokenVersion++
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].PasswordHash = passwordHash
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryTokenRepo) {
	t.Helper()

	repo := newMemoryTokenRepo()
	return NewService(ServiceConfig{
		Repo:      repo,
		Tx:        directTx{repo: repo},
		Tokens:    newTestJWTManager(t),
		Users:     newMemoryUsers(),
		Blacklist: &memoryBlacklist{jtis: make(map[string]time.Time)},
	}), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:       "Ada@Example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
		Role:        "programmer",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, "programmer", reg.User.Role)
	assert.Equal(t, "Bearer", reg.Tokens.TokenType)
	assert.Equal(t, 900, reg.Tokens.ExpiresIn)

	_, err = svc.Register(ctx, RegisterRequest{
		Email:       "ada@example.com",
		Password:    "another password",
		DisplayName: "Ada Again",
	}, "", "")
	assert.ErrorIs(t, err, ErrEmailExists)

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong password",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotationAndReuse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:       "client@example.com",
		Password:    "password123",
		DisplayName: "Client",
	}, "", "")
	require.NoError(t, err)

	first := reg.Tokens.RefreshToken

	rotated, err := svc.Refresh(ctx, first, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, first, "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = svc.Refresh(ctx, rotated.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, "unknown", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenHonoursTokenVersion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:       "p@example.com",
		Password:    "password123",
		DisplayName: "P",
	}, "", "")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	require.NoError(t, svc.LogoutAll(ctx, reg.User.ID))

	_, err = svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestSessionsAndLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:       "s@example.com",
		Password:    "password123",
		DisplayName: "S",
	}, "agent-a", "10.0.0.1")
	require.NoError(t, err)

	sessions, err := svc.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "agent-a", sessions[0].UserAgent)

	claims, err := svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, reg.Tokens.RefreshToken, claims))

	sessions, err = svc.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	claims, err = svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
	assert.Nil(t, claims)

	err = svc.RevokeSession(ctx, "someone-else", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevokeSessionHidesOtherUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner, err := svc.Register(ctx, RegisterRequest{
		Email: "owner@example.com", Password: "password123", DisplayName: "Owner",
	}, "", "")
	require.NoError(t, err)
	other, err := svc.Register(ctx, RegisterRequest{
		Email: "other@example.com", Password: "password123", DisplayName: "Other",
	}, "", "")
	require.NoError(t, err)

	sessions, err := svc.GetActiveSessions(ctx, owner.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = svc.RevokeSession(ctx, other.User.ID, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, svc.RevokeSession(ctx, owner.User.ID, sessions[0].ID))
	err = svc.RevokeSession(ctx, owner.User.ID, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestConcurrentRefreshClaimsOnce(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email: "race@example.com", Password: "password123", DisplayName: "Race",
	}, "", "")
	require.NoError(t, err)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		reuses  int
		refresh = reg.Tokens.RefreshToken
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, refresh, "", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrTokenReuse):
				reuses++
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, wins, 1)
	assert.Equal(t, callers, wins+reuses)

	stored, err := repo.FindByHash(ctx, core.HashToken(refresh))
	require.NoError(t, err)
	if reuses > 0 {
		assert.True(t, repo.familyRevoked(stored.FamilyID))
	}
}

func TestChangePasswordEndsSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email: "cp@example.com", Password: "password123", DisplayName: "CP",
	}, "", "")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, reg.User.ID, "wrong-password", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, "password123", "newpassword1"))

	_, err = svc.Refresh(ctx, reg.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Login(ctx, LoginRequest{Email: "cp@example.com", Password: "newpassword1"}, "", "")
	require.NoError(t, err)
}
