package model

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// CanAssign reports whether the role may create tasks and verify work.
func (r Role) CanAssign() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	UserID    string    `firestore:"userid,omitempty"`
	Name      string    `firestore:"name,omitempty"`
	Email     string    `firestore:"email,omitempty"`
	Profile   string    `firestore:"profile,omitempty"` // profile photo URL, opaque
	Role      Role      `firestore:"role,omitempty"`
	CreatedAt time.Time `firestore:"createdat,omitempty"`
}
