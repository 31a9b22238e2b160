package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is the credential record persisted in the object store under
// users/{username}.json. PasswordHash is a salted KDF output, never the
// plaintext password.
type User struct {
	Username              string    `json:"username"`
	PasswordHash          string    `json:"password_hash"`
	Role                  UserRole  `json:"role"`
	CreatedAt             time.Time `json:"created_at"`
	CreatedBy             string    `json:"created_by,omitempty"`
	InitializedFromConfig bool      `json:"initialized_from_config,omitempty"`
}

// AdminSeed is the bootstrap configuration record at config/admin.json.
// The password is stored already hashed; the plaintext seed only ever
// exists in process configuration.
type AdminSeed struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
