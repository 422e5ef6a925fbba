package user

import (
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/user"
)

type Role string

const (
	RoleHSEOfficer     Role = "hse_officer"
	RoleProjectManager Role = "project_manager"
	RoleSupervisor     Role = "supervisor"
	RoleAuditor        Role = "auditor"
	RoleAdmin          Role = "admin"

	DefaultRole = RoleHSEOfficer
)

var Roles = []Role{RoleHSEOfficer, RoleProjectManager, RoleSupervisor, RoleAuditor, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return names
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FullName     *string   `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeLogin lower-cases and trims a username or email so lookups are case-insensitive.
func NormalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		FullName:     u.FullName,
		CreatedAt:    u.CreatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         Role(u.Role),
		FullName:     u.FullName,
		CreatedAt:    u.CreatedAt,
	}
}
