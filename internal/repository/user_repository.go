package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/transit-booking/internal/model"
)

// UserRepo is the MySQL implementation of Users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, name, password_hash, role, email_verified_at, created_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u        model.User
		verified sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &verified, &u.CreatedAt)
	if verified.Valid {
		at := verified.Time
		u.EmailVerifiedAt = &at
	}
	return u, err
}

// CreateUser inserts u and returns it with its id and creation time.  The
// password must already be hashed.
func (r *UserRepo) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, normalizeEmail(email)))
	if err != nil {
		return model.User{}, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if err != nil {
		return model.User{}, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// MarkEmailVerified stamps the first verification; later calls keep the
// original time.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email_verified_at = COALESCE(email_verified_at, ?) WHERE email = ?`,
		at.UTC(), normalizeEmail(email))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetUserByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
