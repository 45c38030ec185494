// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is never hard-deleted: advisories keep referencing the row after a
// soft delete, and the schema restricts hard deletes.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	DisplayName  string     `db:"display_name"`
	PhotoURL     string     `db:"photo_url"`
	Specialty    string     `db:"specialty"`
	Description  string     `db:"description"`
	Role         string     `db:"role"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsProgrammer() bool {
	return u.Role == RoleProgrammer
}

const (
	RoleClient     = "client"
	RoleProgrammer = "programmer"
	RoleAdmin      = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleProgrammer, RoleAdmin:
		return true
	}
	return false
}
