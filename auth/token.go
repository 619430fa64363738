package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RigelNana/vitalicio/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessAudience marks tokens minted for API callers. Session tokens kept by
// LocalProvider carry no audience and are refused as bearer tokens.
const AccessAudience = "portal-api"

var ErrTokenRevoked = errors.New("token has been revoked")

// AccessClaims is the user a bearer token speaks for.
type AccessClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) User() *models.User {
	return &models.User{ID: c.Subject, Name: c.Name, Email: c.Email, IsAdmin: c.IsAdmin}
}

// TokenIssuer signs the bearer tokens handed out on login and checks them on
// every request. Revoked token ids are remembered until they expire.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenIssuer(secret []byte, expiry time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret:  secret,
		expiry:  expiry,
		now:     time.Now,
		revoked: map[string]time.Time{},
	}, nil
}

func (t *TokenIssuer) Issue(u *models.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("cannot issue a token without a user")
	}
	now := t.now()
	claims := AccessClaims{
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{AccessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (t *TokenIssuer) Verify(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AccessAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.revoked[claims.ID]; ok {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke refuses claims from now on.
func (t *TokenIssuer) Revoke(claims *AccessClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, exp := range t.revoked {
		if exp.Before(now) {
			delete(t.revoked, id)
		}
	}
	exp := now.Add(t.expiry)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	t.revoked[claims.ID] = exp
}
