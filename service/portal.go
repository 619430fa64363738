package service

import (
	"context"
	"sync"

	"github.com/RigelNana/vitalicio/filter"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Portal owns every store and drives the refresh that follows a session
// being established. Signing out keeps the loaded content in place.
type Portal struct {
	Session  *SessionManager
	Catalog  *CatalogStore
	Settings *SettingsStore
	Uploads  *UploadPipeline
	Toasts   *notify.Queue
	// Filter holds the presentation's search, category and tab over the catalog.
	Filter *filter.View

	log logrus.FieldLogger

	mu          sync.Mutex
	ctx         context.Context
	unsubscribe func()
}

func NewPortal(session *SessionManager, catalog *CatalogStore, settings *SettingsStore, uploads *UploadPipeline, toasts *notify.Queue, log logrus.FieldLogger) *Portal {
	return &Portal{
		Session:  session,
		Catalog:  catalog,
		Settings: settings,
		Uploads:  uploads,
		Toasts:   toasts,
		Filter:   filter.NewView(catalog),
		log:      log.WithField("component", "portal"),
	}
}

// Start restores the session. When one exists the stores are refreshed
// before Start returns.
func (p *Portal) Start(ctx context.Context) (*models.User, error) {
	p.mu.Lock()
	p.ctx = context.WithoutCancel(ctx)
	if p.unsubscribe == nil {
		p.unsubscribe = p.Session.Subscribe(p.onSessionChange)
	}
	p.mu.Unlock()

	return p.Session.Start(ctx)
}

// RefreshAll refreshes the catalog and the settings concurrently. Both run to
// completion; the first error is returned.
func (p *Portal) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return p.Catalog.Refresh(ctx) })
	g.Go(func() error { return p.Settings.Refresh(ctx) })
	return g.Wait()
}

func (p *Portal) onSessionChange(u *models.User) {
	if u == nil {
		p.log.Info("session ended")
		return
	}
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	p.log.WithFields(logrus.Fields{"user_id": u.ID, "admin": u.IsAdmin}).Info("session established")
	if err := p.RefreshAll(ctx); err != nil {
		p.log.WithError(err).Warn("initial sync incomplete")
	}
}

// Close releases the session subscription, waits for background view
// persists and stops the toast timers.
func (p *Portal) Close() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	p.Session.Close()
	p.Filter.Close()
	p.Catalog.Wait()
	p.Toasts.Close()
}
