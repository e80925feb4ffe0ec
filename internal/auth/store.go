package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username already taken")
	ErrRoleNotFound = errors.New("role not found")
)

// Store persists users and roles.
type Store interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateRole(ctx context.Context, name string) error
	// FindUserByUsername returns the user with its roles, or ErrUserNotFound.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUser stores the user holding role in one step and fills
	// user.Roles with the stored role. It returns ErrUserExists when the
	// username is taken and ErrRoleNotFound for an unknown role; either way
	// nothing is written.
	CreateUser(ctx context.Context, user *User, role string) error
	// AddUserToRole is a no-op when the user already holds the role. It
	// returns ErrRoleNotFound for an unknown role.
	AddUserToRole(ctx context.Context, userID, role string) error
}

// LocalStore keeps users and roles in memory.
type LocalStore struct {
	mu         sync.RWMutex
	roles      map[string]Role
	users      map[string]*User // by lowercase username
	nextRoleID int64
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		roles: map[string]Role{},
		users: map[string]*User{},
	}
}

func (l *LocalStore) RoleExists(_ context.Context, name string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.roles[name]
	return ok, nil
}

func (l *LocalStore) CreateRole(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.roles[name]; ok {
		return nil
	}
	l.nextRoleID++
	l.roles[name] = Role{ID: l.nextRoleID, Name: name}
	return nil
}

func (l *LocalStore) FindUserByUsername(_ context.Context, username string) (*User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	out.Roles = append([]Role(nil), u.Roles...)
	return &out, nil
}

func (l *LocalStore) CreateUser(_ context.Context, user *User, role string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.roles[role]
	if !ok {
		return ErrRoleNotFound
	}
	key := strings.ToLower(user.Username)
	if _, ok := l.users[key]; ok {
		return ErrUserExists
	}
	user.Roles = []Role{r}
	stored := *user
	stored.Roles = []Role{r}
	l.users[key] = &stored
	return nil
}

func (l *LocalStore) AddUserToRole(_ context.Context, userID, role string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.roles[role]
	if !ok {
		return ErrRoleNotFound
	}
	for _, u := range l.users {
		if u.ID != userID {
			continue
		}
		for _, existing := range u.Roles {
			if existing.Name == role {
				return nil
			}
		}
		u.Roles = append(u.Roles, r)
		return nil
	}
	return ErrUserNotFound
}
