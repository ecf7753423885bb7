package admins

import (
	"time"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
)

// Status is the lifecycle state of an admin account. Accounts that have
// authored or reviewed content are never deleted, only suspended.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Admin represents a back-office account.
type Admin struct {
	ID           int64
	Email        string
	Name         string
	Role         rbac.Role
	Status       Status
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may act.
func (a Admin) Active() bool {
	return a.Status == StatusActive
}
