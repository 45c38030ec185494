// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

// RevokeScope names the column a bulk revocation matches on.
type RevokeScope string

const (
	ScopeToken  RevokeScope = "id"
	ScopeFamily RevokeScope = "family_id"
	ScopeUser   RevokeScope = "user_id"
)

type Repository interface {
	Insert(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	Claim(ctx context.Context, id, replacedByID string) error
	Revoke(ctx context.Context, scope RevokeScope, value string) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]RefreshToken, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

var tokenColumns = []string{
	"id", "user_id", "token_hash", "family_id", "expires_at", "created_at",
	"is_used", "used_at", "revoked_at", "replaced_by_id", "user_agent", "ip_address",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, token *RefreshToken) error {
	query, args, err := psql.Insert("refresh_tokens").
		Columns("id", "user_id", "token_hash", "family_id", "expires_at",
			"user_agent", "ip_address").
		Values(token.ID, token.UserID, token.TokenHash, token.FamilyID,
			token.ExpiresAt, token.UserAgent, token.IPAddress).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token: %w", err)
	}

	if err := r.db.GetContext(ctx, &token.CreatedAt, query, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.findOne(ctx, sq.Eq{"token_hash": tokenHash})
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *repository) findOne(ctx context.Context, where sq.Eq) (*RefreshToken, error) {
	query, args, err := psql.Select(tokenColumns...).
		From("refresh_tokens").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find refresh token: %w", err)
	}

	var token RefreshToken
	err = r.db.GetContext(ctx, &token, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Claim marks a live token as exchanged for replacedByID. It fails with
// ErrTokenReuse when another exchange claimed the token first.
func (r *repository) Claim(ctx context.Context, id, replacedByID string) error {
	query, args, err := psql.Update("refresh_tokens").
		Set("is_used", true).
		Set("used_at", sq.Expr("NOW()")).
		Set("replaced_by_id", replacedByID).
		Where(sq.Eq{"id": id}).
		Where("is_used = false").
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build claim refresh token: %w", err)
	}

	rows, err := r.exec(ctx, "claim refresh token", query, args)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("claim refresh token: %w", ErrTokenReuse)
	}
	return nil
}

// Revoke stamps every unrevoked token matching scope and reports how many
// changed.
func (r *repository) Revoke(
	ctx context.Context,
	scope RevokeScope,
	value string,
) (int64, error) {
	query, args, err := psql.Update("refresh_tokens").
		Set("revoked_at", sq.Expr("NOW()")).
		Where(sq.Eq{string(scope): value}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke refresh tokens: %w", err)
	}

	return r.exec(ctx, "revoke refresh tokens by "+string(scope), query, args)
}

func (r *repository) ListActive(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]RefreshToken, error) {
	query, args, err := psql.Select(tokenColumns...).
		From("refresh_tokens").
		Where(sq.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		Where("is_used = false").
		Where(sq.Gt{"expires_at": now}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions: %w", err)
	}

	tokens := []RefreshToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return tokens, nil
}

func (r *repository) Purge(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := psql.Delete("refresh_tokens").
		Where(sq.Lt{"expires_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge refresh tokens: %w", err)
	}

	return r.exec(ctx, "purge refresh tokens", query, args)
}

func (r *repository) exec(ctx context.Context, op, query string, args []any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}
