package repository

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/transit-booking/internal/model"
)

// EnsureAdmin creates a verified ADMIN account for email and reports
// whether it did.  An existing account with that email is left as it is.
func EnsureAdmin(ctx context.Context, users Users, email, name, passwordHash string, now time.Time) (bool, error) {
	_, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	u, err := users.CreateUser(ctx, model.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
	})
	if errors.Is(err, ErrEmailExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, users.MarkEmailVerified(ctx, u.Email, now)
}
