package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailAlreadyInUse  = errors.New("email is already in use")
	ErrInvalidInput       = errors.New("email and password are required")
)

// Identity is what the provider knows about the signed-in account.
type Identity struct {
	ID       string
	Email    string
	FullName string
	Roles    []string
}

func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Provider is the auth collaborator the session manager talks to.
type Provider interface {
	// GetSession returns nil, nil when nobody is signed in.
	GetSession(ctx context.Context) (*Identity, error)
	// OnSessionChange registers cb for every later sign-in, refresh and sign-out.
	// cb receives nil on sign-out.
	OnSessionChange(cb func(*Identity)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, fullName string) error
	SignOut(ctx context.Context) error
}
