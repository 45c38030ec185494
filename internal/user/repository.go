// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

var userColumns = []string{
	"id", "email", "password_hash", "display_name", "photo_url", "specialty",
	"description", "role", "token_version", "created_at", "updated_at", "deleted_at",
}

var (
	psql    = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	now     = sq.Expr("NOW()")
	notGone = sq.Expr("deleted_at IS NULL")
	bumped  = sq.Expr("token_version + 1")
)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "email", "password_hash", "display_name", "photo_url",
			"specialty", "description", "role").
		Values(u.ID, u.Email, u.PasswordHash, u.DisplayName, u.PhotoURL,
			u.Specialty, u.Description, u.Role).
		Suffix("RETURNING created_at, updated_at, token_version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).
		Scan(&u.CreatedAt, &u.UpdatedAt, &u.TokenVersion)
	switch {
	case core.IsUniqueViolation(err):
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return r.findOne(ctx, "get user", sq.Eq{"id": id})
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "get user by email", sq.Eq{"email": email})
}

func (r *repository) findOne(ctx context.Context, op string, pred sq.Sqlizer) (*User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(pred).
		Where(notGone).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}

	var u User
	err = r.db.GetContext(ctx, &u, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (r *repository) Update(ctx context.Context, u *User) error {
	query, args, err := live(psql.Update("users").
		Set("display_name", u.DisplayName).
		Set("photo_url", u.PhotoURL).
		Set("specialty", u.Specialty).
		Set("description", u.Description).
		Set("role", u.Role).
		Set("updated_at", now), u.ID).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user: %w", err)
	}

	err = r.db.GetContext(ctx, &u.UpdatedAt, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.touch(ctx, "update password", live(psql.Update("users").
		Set("password_hash", passwordHash).
		Set("updated_at", now), id))
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	return r.touch(ctx, "increment token version", live(psql.Update("users").
		Set("token_version", bumped).
		Set("updated_at", now), id))
}

// SoftDelete also bumps the token version so outstanding access tokens
// stop verifying.
func (r *repository) SoftDelete(ctx context.Context, id string) error {
	return r.touch(ctx, "delete user", live(psql.Update("users").
		Set("deleted_at", now).
		Set("updated_at", now).
		Set("token_version", bumped), id))
}

// live restricts an update to the not yet deleted row with the given id.
func live(b sq.UpdateBuilder, id string) sq.UpdateBuilder {
	return b.Where(sq.Eq{"id": id}).Where(notGone)
}

// touch runs an update that must hit exactly one live row.
func (r *repository) touch(ctx context.Context, op string, b sq.UpdateBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	params.Normalize()

	filter := sq.And{notGone}
	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		filter = append(filter, sq.Or{
			sq.ILike{"email": pattern},
			sq.ILike{"display_name": pattern},
		})
	}
	if params.Role != "" {
		filter = append(filter, sq.Eq{"role": params.Role})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("users").Where(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if total == 0 {
		return []User{}, 0, nil
	}

	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(filter).
		OrderBy("created_at DESC").
		Limit(uint64(params.PageSize)).  //nolint:gosec // normalized to 1..100
		Offset(uint64(params.Offset())). //nolint:gosec // never negative after Normalize
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users: %w", err)
	}

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
