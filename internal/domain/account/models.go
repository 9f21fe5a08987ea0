package account

import (
	"time"

	"leavesys/internal/domain/leave"
)

// Permission is the account role. There are exactly two.
type Permission string

const (
	PermissionEmployee Permission = "employee"
	PermissionAdmin    Permission = "admin"
)

func ParsePermission(raw string) (Permission, bool) {
	switch Permission(raw) {
	case PermissionEmployee:
		return PermissionEmployee, true
	case PermissionAdmin:
		return PermissionAdmin, true
	}
	return "", false
}

// Label returns the localized role name used by the CSV export.
func (p Permission) Label() string {
	if p == PermissionAdmin {
		return "管理員"
	}
	return "一般員工"
}

// Account is an employee login together with its configured leave quotas.
// EmployeeID is the immutable key. The admin surface returns the stored
// password value as-is, so the hash sits under the password JSON key.
type Account struct {
	EmployeeID   string       `json:"employeeId"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"password"`
	Permission   Permission   `json:"permission"`
	Quotas       leave.Quotas `json:"quotas"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
