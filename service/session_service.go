package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/sirupsen/logrus"
)

type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

// BypassUserID identifies the synthetic admin produced by the bypass pair.
const BypassUserID = "admin-root"

// BypassCredentials is a literal email/password pair that signs in as admin
// without contacting the auth provider. It exists for operability and is
// meant to be replaced by real role-based access control.
type BypassCredentials struct {
	Email    string
	Password string
}

type SessionOptions struct {
	// AdminEmail grants admin to an identity without the admin role. Temporary
	// fallback until every admin account carries the role.
	AdminEmail string
	// Bypass is nil when the escape hatch is disabled.
	Bypass *BypassCredentials
}

type SessionManager struct {
	provider   auth.Provider
	toasts     *notify.Queue
	log        logrus.FieldLogger
	adminEmail string
	bypass     *BypassCredentials

	mu                  sync.RWMutex
	current             *models.User
	started             bool
	unsubscribeProvider func()

	subs listeners[*models.User]
}

func NewSessionManager(provider auth.Provider, toasts *notify.Queue, opts SessionOptions, log logrus.FieldLogger) *SessionManager {
	if opts.Bypass != nil && (opts.Bypass.Email == "" || opts.Bypass.Password == "") {
		opts.Bypass = nil
	}
	return &SessionManager{
		provider:   provider,
		toasts:     toasts,
		log:        log.WithField("component", "session"),
		adminEmail: opts.AdminEmail,
		bypass:     opts.Bypass,
	}
}

// Start restores an existing session from the provider and follows later
// provider-side changes. Calling it again returns the current session.
func (m *SessionManager) Start(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return m.Current(), nil
	}
	m.started = true
	m.mu.Unlock()

	identity, err := m.provider.GetSession(ctx)
	unsubscribe := m.provider.OnSessionChange(m.onProviderChange)

	m.mu.Lock()
	m.unsubscribeProvider = unsubscribe
	m.mu.Unlock()

	if err != nil {
		m.log.WithError(err).Warn("failed to restore session")
		return nil, newError(ErrRemoteFetch, remoteMessage(err), err)
	}
	m.setCurrent(m.userFrom(identity))
	return m.Current(), nil
}

func (m *SessionManager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

// Subscribe registers fn for every session change. fn receives nil on sign-out.
func (m *SessionManager) Subscribe(fn func(*models.User)) func() {
	return m.subs.add(fn)
}

// Authenticate signs in or registers and returns the resulting user. It
// returns nil, nil when the provider accepted the credentials but the
// session could not be read back.
func (m *SessionManager) Authenticate(ctx context.Context, mode AuthMode, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(email)

	if m.bypass != nil && email == m.bypass.Email && password == m.bypass.Password {
		m.log.WithField("email", email).Warn("admin bypass credentials used")
		m.setCurrent(&models.User{ID: BypassUserID, Name: "Administrador Elite", Email: email, IsAdmin: true})
		return &models.User{ID: BypassUserID, Name: "Administrador Elite", Email: email, IsAdmin: true}, nil
	}

	if email == "" || password == "" {
		m.toasts.Error("Informe e-mail e senha.")
		return nil, newError(ErrValidation, "Informe e-mail e senha.", nil)
	}

	var err error
	switch mode {
	case ModeRegister:
		fullName := strings.TrimSpace(name)
		if fullName == "" {
			fullName = localPart(email)
		}
		err = m.provider.SignUp(ctx, email, password, fullName)
	case ModeLogin, "":
		err = m.provider.SignInWithPassword(ctx, email, password)
	default:
		return nil, newError(ErrValidation, "modo de autenticação desconhecido: "+string(mode), nil)
	}
	if err != nil {
		msg := authMessage(err)
		m.log.WithError(err).WithField("mode", mode).Info("authentication failed")
		m.toasts.Error(msg)
		return nil, newError(ErrAuth, msg, err)
	}
	if mode == ModeRegister {
		m.toasts.Success("Cadastro realizado!")
	}

	identity, err := m.provider.GetSession(ctx)
	if err != nil {
		m.log.WithError(err).Warn("failed to load session after authentication")
		return nil, nil
	}
	m.setCurrent(m.userFrom(identity))
	return m.userFrom(identity), nil
}

// SignOut always clears the local session, even when the provider call fails.
func (m *SessionManager) SignOut(ctx context.Context) error {
	current := m.Current()
	var err error
	if current == nil || current.ID != BypassUserID {
		err = m.provider.SignOut(ctx)
	}
	m.setCurrent(nil)
	if err != nil {
		m.log.WithError(err).Warn("provider sign-out failed")
		m.toasts.Error(remoteMessage(err))
		return newError(ErrAuth, remoteMessage(err), err)
	}
	return nil
}

// Close stops following provider-side session changes.
func (m *SessionManager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribeProvider
	m.unsubscribeProvider = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *SessionManager) onProviderChange(identity *auth.Identity) {
	m.setCurrent(m.userFrom(identity))
}

func (m *SessionManager) setCurrent(u *models.User) {
	m.mu.Lock()
	if sameUser(m.current, u) {
		m.mu.Unlock()
		return
	}
	m.current = u
	m.mu.Unlock()

	var out *models.User
	if u != nil {
		cp := *u
		out = &cp
	}
	m.subs.emit(out)
}

func (m *SessionManager) userFrom(identity *auth.Identity) *models.User {
	if identity == nil {
		return nil
	}
	name := identity.FullName
	if name == "" {
		name = localPart(identity.Email)
	}
	if name == "" {
		name = "Membro"
	}
	return &models.User{
		ID:      identity.ID,
		Name:    name,
		Email:   identity.Email,
		IsAdmin: m.isAdmin(identity),
	}
}

func (m *SessionManager) isAdmin(identity *auth.Identity) bool {
	if identity.HasRole(models.RoleAdmin) {
		return true
	}
	return m.adminEmail != "" && identity.Email == m.adminEmail
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "E-mail ou senha inválidos."
	case errors.Is(err, auth.ErrEmailAlreadyInUse):
		return "Este e-mail já está cadastrado."
	case errors.Is(err, auth.ErrInvalidInput):
		return "Informe e-mail e senha."
	}
	return remoteMessage(err)
}
