package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/transit-booking/internal/model"
)

// The fixture store also keeps accounts so that the API is fully usable
// without a database.  Accounts are lost on restart.

func (s *FixtureStore) CreateUser(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = normalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *FixtureStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (s *FixtureStore) GetUserByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *FixtureStore) MarkEmailVerified(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	for id, u := range s.users {
		if u.Email != email {
			continue
		}
		if u.EmailVerifiedAt == nil {
			at := at.UTC()
			u.EmailVerifiedAt = &at
			s.users[id] = u
		}
		return nil
	}
	return ErrUserNotFound
}

func (s *FixtureStore) StoreVerificationToken(_ context.Context, email, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[normalizeEmail(email)+"\x00"+tokenHash] = expiresAt
	return nil
}

func (s *FixtureStore) ConsumeVerificationToken(_ context.Context, email, tokenHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email) + "\x00" + tokenHash
	exp, ok := s.tokens[key]
	if !ok || !now.Before(exp) {
		return ErrTokenInvalid
	}
	delete(s.tokens, key)
	return nil
}
