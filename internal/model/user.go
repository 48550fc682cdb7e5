package model

import "time"

// Roles carried in the JWT role claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Handlers define their own response types; PasswordHash never
// leaves the server.
//
// Fields:
//  ID              – primary key identifier.
//  Email           – unique, lower-cased email address.
//  Name            – display name printed on tickets.
//  PasswordHash    – bcrypt hashed password.
//  Role            – CUSTOMER or ADMIN.
//  EmailVerifiedAt – set once the verification link was used.
//  CreatedAt       – timestamp of creation.
type User struct {
	ID              string     // users.id
	Email           string     // users.email
	Name            string     // users.name
	PasswordHash    string     // users.password_hash
	Role            string     // users.role
	EmailVerifiedAt *time.Time // users.email_verified_at (nullable)
	CreatedAt       time.Time  // users.created_at
}

// Verified reports whether the user confirmed their email address.
func (u User) Verified() bool { return u.EmailVerifiedAt != nil }
