package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sessionClaims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

type LocalProviderArgs struct {
	Secret     []byte
	Expiry     time.Duration
	TokenFile  string
	BcryptCost int
}

// LocalProvider keeps accounts in the database and the current session as a
// signed JWT, optionally mirrored to a token file so a restart restores it.
type LocalProvider struct {
	repo       repository.AccountRepository
	secret     []byte
	expiry     time.Duration
	tokenFile  string
	bcryptCost int
	log        logrus.FieldLogger

	mu        sync.Mutex
	token     string
	loaded    bool
	listeners map[int]func(*Identity)
	nextID    int
}

func NewLocalProvider(repo repository.AccountRepository, args LocalProviderArgs, log logrus.FieldLogger) (*LocalProvider, error) {
	if len(args.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if args.Expiry <= 0 {
		args.Expiry = 7 * 24 * time.Hour
	}
	if args.BcryptCost == 0 {
		args.BcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{
		repo:       repo,
		secret:     args.Secret,
		expiry:     args.Expiry,
		tokenFile:  args.TokenFile,
		bcryptCost: args.BcryptCost,
		log:        log,
		listeners:  map[int]func(*Identity){},
	}, nil
}

func (p *LocalProvider) GetSession(ctx context.Context) (*Identity, error) {
	token := p.currentToken()
	if token == "" {
		return nil, nil
	}
	claims, err := p.parse(token)
	if err != nil {
		p.log.WithError(err).Info("discarding stale session token")
		p.setToken("")
		return nil, nil
	}
	account, err := p.repo.GetByID(ctx, claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.setToken("")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return identityOf(account), nil
}

func (p *LocalProvider) OnSessionChange(cb func(*Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	account, err := p.repo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return p.startSession(account)
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, fullName string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if _, err := p.repo.GetByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return err
	}
	account := &models.Account{
		Email:    email,
		Password: string(hash),
		FullName: strings.TrimSpace(fullName),
		Role:     models.RoleMember,
	}
	if err := p.repo.Create(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	p.log.WithField("account_id", account.ID).Info("account registered")
	return p.startSession(account)
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.setToken("")
	p.emit(nil)
	return nil
}

// GrantRole is the admin tooling hook for promoting an account.
func (p *LocalProvider) GrantRole(ctx context.Context, email, role string) error {
	account, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	return p.repo.Update(ctx, account.ID, map[string]interface{}{"role": role})
}

func (p *LocalProvider) startSession(account *models.Account) error {
	now := time.Now()
	claims := sessionClaims{
		Email:    account.Email,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}
	p.setToken(token)
	p.emit(identityOf(account))
	return nil
}

func (p *LocalProvider) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *LocalProvider) currentToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.loaded = true
		if p.tokenFile != "" {
			data, err := os.ReadFile(p.tokenFile)
			if err == nil {
				p.token = strings.TrimSpace(string(data))
			} else if !os.IsNotExist(err) {
				p.log.WithError(err).Warn("failed to read session token file")
			}
		}
	}
	return p.token
}

func (p *LocalProvider) setToken(token string) {
	p.mu.Lock()
	p.token = token
	p.loaded = true
	p.mu.Unlock()

	if p.tokenFile == "" {
		return
	}
	var err error
	if token == "" {
		err = os.Remove(p.tokenFile)
		if os.IsNotExist(err) {
			err = nil
		}
	} else {
		err = os.WriteFile(p.tokenFile, []byte(token), 0600)
	}
	if err != nil {
		p.log.WithError(err).Warn("failed to persist session token")
	}
}

func (p *LocalProvider) emit(identity *Identity) {
	p.mu.Lock()
	cbs := make([]func(*Identity), 0, len(p.listeners))
	for _, cb := range p.listeners {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(identity)
	}
}

func identityOf(account *models.Account) *Identity {
	identity := &Identity{ID: account.ID, Email: account.Email, FullName: account.FullName}
	if account.Role != "" {
		identity.Roles = []string{account.Role}
	}
	return identity
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
