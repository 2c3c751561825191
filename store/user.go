package store

import (
	"context"
	"fmt"
)

// User is the object representing an account.
type User struct {
	ID        int32
	Username  string
	Email     string
	// PasswordHash is a bcrypt hash managed by the auth layer.
	PasswordHash string
	// PhoneNumber is the WhatsApp-reachable contact address, if configured.
	PhoneNumber *string
	CreatedTs   int64
	UpdatedTs   int64
}

// FindUser is the find condition for users.
type FindUser struct {
	ID       *int32
	Username *string
	Email    *string
}

// UpdateUser is the update request for a user.
type UpdateUser struct {
	ID           int32
	Email        *string
	PasswordHash *string
	PhoneNumber  *string
}

// CreateUser creates a new user.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(userCacheKey(user.ID), user)
	return user, nil
}

// ListUsers lists users with filter.
func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser gets a user matching the filter, or nil when none matches.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil {
		if cached, ok := s.userCache.Get(userCacheKey(*find.ID)); ok {
			return cached.(*User), nil
		}
	}

	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	user := list[0]
	s.userCache.Set(userCacheKey(user.ID), user)
	return user, nil
}

// UpdateUser updates a user.
func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	user, err := s.driver.UpdateUser(ctx, update)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(userCacheKey(user.ID), user)
	return user, nil
}

func userCacheKey(id int32) string {
	return fmt.Sprintf("user-%d", id)
}
