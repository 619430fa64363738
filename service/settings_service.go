package service

import (
	"context"
	"sync"
	"time"

	"github.com/RigelNana/vitalicio/events"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/pkg/metrics"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/sirupsen/logrus"
)

// SettingsStore holds the hero configuration. Until a refresh succeeds it
// serves the defaults.
type SettingsStore struct {
	repo      repository.SettingsRepository
	publisher events.Publisher
	toasts    *notify.Queue
	log       logrus.FieldLogger

	mu      sync.RWMutex
	current models.AppSettings
	status  SyncStatus

	subs listeners[models.AppSettings]
}

func NewSettingsStore(repo repository.SettingsRepository, publisher events.Publisher, toasts *notify.Queue, log logrus.FieldLogger) *SettingsStore {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SettingsStore{
		repo:      repo,
		publisher: publisher,
		toasts:    toasts,
		log:       log.WithField("component", "settings"),
		current:   models.DefaultSettings(),
		status:    StatusIdle,
	}
}

// Refresh loads the singleton row and merges it over the defaults field by
// field. A missing row yields the defaults.
func (s *SettingsStore) Refresh(ctx context.Context) error {
	rec, err := s.repo.Get(ctx, models.SettingsID)
	if err != nil {
		metrics.StoreRefreshes.WithLabelValues("settings", "error").Inc()
		s.mu.Lock()
		s.status = StatusDisconnected
		s.mu.Unlock()
		s.log.WithError(err).Warn("settings sync pending")
		return newError(ErrRemoteFetch, remoteMessage(err), err)
	}

	merged := rec.Merge()
	s.mu.Lock()
	s.current = merged
	s.status = StatusConnected
	s.mu.Unlock()

	metrics.StoreRefreshes.WithLabelValues("settings", "ok").Inc()
	s.subs.emit(merged)
	return nil
}

func (s *SettingsStore) Current() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SettingsStore) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *SettingsStore) Subscribe(fn func(models.AppSettings)) func() {
	return s.subs.add(fn)
}

// Save upserts settings under the fixed id. The local copy only changes once
// the write is accepted.
func (s *SettingsStore) Save(ctx context.Context, settings models.AppSettings) error {
	err := s.repo.Upsert(ctx, settings.Record())
	if err != nil {
		msg := remoteMessage(err)
		s.log.WithError(err).Warn("settings save failed")
		s.toasts.Error(msg)
		return newError(ErrRemoteWrite, msg, err)
	}

	merged := settings.Record().Merge()
	s.mu.Lock()
	s.current = merged
	s.status = StatusConnected
	s.mu.Unlock()

	s.toasts.Success("Identidade visual salva!")
	if err := s.publisher.Publish(ctx, events.Event{Type: events.SettingsSaved, At: time.Now()}); err != nil {
		s.log.WithError(err).Warn("failed to publish settings event")
	}
	s.subs.emit(merged)
	return nil
}
