package models

import (
	"strings"
	"time"
)

// DefaultRole is assigned to every newly registered account.
const DefaultRole = "editor"

type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"column:password;size:255;not null" json:"-"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login"`
	RoleList     string     `gorm:"column:roles;default:editor" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
}

func (User) TableName() string { return "users" }

// Roles splits the stored comma-joined role column, preserving order.
func (u User) Roles() []string {
	var out []string
	for _, r := range strings.Split(u.RoleList, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// JoinRoles is the inverse of Roles.
func JoinRoles(roles []string) string {
	return strings.Join(roles, ",")
}
