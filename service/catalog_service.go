package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/RigelNana/vitalicio/events"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/pkg/metrics"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SyncStatus string

const (
	StatusIdle         SyncStatus = "idle"
	StatusConnected    SyncStatus = "connected"
	StatusDisconnected SyncStatus = "disconnected"
)

// MaterialDraft is what an admin submits to publish a material.
type MaterialDraft struct {
	Title       string              `json:"title"`
	Type        models.MaterialType `json:"type"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	ImageURL    string              `json:"imageUrl"`
	VideoURL    string              `json:"videoUrl"`
}

func (d *MaterialDraft) SetImageURL(url string) {
	d.ImageURL = url
}

// MaterialPatch lists the fields an update touches. Nil fields are left alone.
type MaterialPatch struct {
	Title       *string              `json:"title,omitempty"`
	Type        *models.MaterialType `json:"type,omitempty"`
	Category    *string              `json:"category,omitempty"`
	Description *string              `json:"description,omitempty"`
	ImageURL    *string              `json:"imageUrl,omitempty"`
	VideoURL    *string              `json:"videoUrl,omitempty"`
	Gradient    *string              `json:"gradient,omitempty"`
}

// ConfirmFunc is asked before a destructive operation is dispatched.
type ConfirmFunc func(m models.Material) bool

// CatalogStore owns the in-memory material collection. Readers always see a
// whole snapshot: refreshes build the new collection off-lock and swap it in.
type CatalogStore struct {
	materials repository.MaterialRepository
	comments  repository.CommentRepository
	publisher events.Publisher
	toasts    *notify.Queue
	log       logrus.FieldLogger

	mu      sync.RWMutex
	items   []models.Material
	status  SyncStatus
	lastErr error

	subs    listeners[struct{}]
	pending sync.WaitGroup
}

func NewCatalogStore(materials repository.MaterialRepository, comments repository.CommentRepository, publisher events.Publisher, toasts *notify.Queue, log logrus.FieldLogger) *CatalogStore {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CatalogStore{
		materials: materials,
		comments:  comments,
		publisher: publisher,
		toasts:    toasts,
		log:       log.WithField("component", "catalog"),
		status:    StatusIdle,
	}
}

// Refresh replaces the collection with a fresh fetch. On failure the previous
// collection stays visible and the status turns disconnected.
func (s *CatalogStore) Refresh(ctx context.Context) error {
	fetched, err := s.materials.ListWithComments(ctx)
	if err != nil {
		metrics.StoreRefreshes.WithLabelValues("catalog", "error").Inc()
		s.mu.Lock()
		s.status = StatusDisconnected
		s.lastErr = err
		s.mu.Unlock()
		s.log.WithError(err).Warn("catalog sync pending")

		msg := remoteMessage(err)
		if isUUIDMismatch(err) {
			msg = msgUUIDMismatch
			s.toasts.Error(msg)
		}
		s.subs.emit(struct{}{})
		return newError(ErrRemoteFetch, msg, err)
	}

	for i := range fetched {
		// Not written back; a record without a stored gradient may get a
		// different one on the next refresh.
		if fetched[i].Gradient == "" {
			fetched[i].Gradient = models.RandomGradient()
		}
		if fetched[i].ReadBy == nil {
			fetched[i].ReadBy = models.NewReadBy([]string{})
		}
		if fetched[i].Comments == nil {
			fetched[i].Comments = []models.Comment{}
		}
	}

	s.mu.Lock()
	s.items = fetched
	s.status = StatusConnected
	s.lastErr = nil
	s.mu.Unlock()

	metrics.StoreRefreshes.WithLabelValues("catalog", "ok").Inc()
	metrics.CatalogSize.Set(float64(len(fetched)))
	s.log.WithField("count", len(fetched)).Debug("catalog refreshed")
	s.subs.emit(struct{}{})
	return nil
}

func (s *CatalogStore) Items() []models.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Material, len(s.items))
	for i, m := range s.items {
		out[i] = m.Clone()
	}
	return out
}

func (s *CatalogStore) Get(id string) (models.Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return models.Material{}, false
}

func (s *CatalogStore) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LastError is the cause of the last failed refresh, nil once a refresh succeeds.
func (s *CatalogStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *CatalogStore) Subscribe(fn func()) func() {
	return s.subs.add(func(struct{}) { fn() })
}

// Wait blocks until every background view persist has finished.
func (s *CatalogStore) Wait() {
	s.pending.Wait()
}

func (s *CatalogStore) Create(ctx context.Context, draft MaterialDraft) (*models.Material, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		s.toasts.Error("Título é obrigatório")
		return nil, newError(ErrValidation, "Título é obrigatório", nil)
	}
	if draft.Type == "" {
		draft.Type = models.TypeCourse
	}
	if !draft.Type.Valid() {
		return nil, s.invalid("Tipo inválido: " + string(draft.Type))
	}
	if draft.Category == "" {
		draft.Category = models.Categories[0]
	}
	if !models.ValidCategory(draft.Category) {
		return nil, s.invalid("Categoria inválida: " + draft.Category)
	}

	m := &models.Material{
		Title:       title,
		Type:        draft.Type,
		Category:    draft.Category,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		VideoURL:    draft.VideoURL,
		Gradient:    models.RandomGradient(),
		ReadBy:      models.NewReadBy([]string{}),
	}
	err := s.materials.Create(ctx, m)
	metrics.CatalogMutations.WithLabelValues("create", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, s.writeFailure("create", err)
	}

	s.toasts.Success("Publicado!")
	s.publish(ctx, events.Event{Type: events.MaterialCreated, MaterialID: m.ID, Attributes: map[string]string{"title": m.Title}})
	s.refreshAfterWrite(ctx)

	if fresh, ok := s.Get(m.ID); ok {
		return &fresh, nil
	}
	return m, nil
}

// Update keeps the stored gradient unless the patch sets one.
func (s *CatalogStore) Update(ctx context.Context, id string, patch MaterialPatch) error {
	fields := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			s.toasts.Error("Título é obrigatório")
			return newError(ErrValidation, "Título é obrigatório", nil)
		}
		fields["title"] = title
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return s.invalid("Tipo inválido: " + string(*patch.Type))
		}
		fields["type"] = *patch.Type
	}
	if patch.Category != nil {
		if !models.ValidCategory(*patch.Category) {
			return s.invalid("Categoria inválida: " + *patch.Category)
		}
		fields["category"] = *patch.Category
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if patch.VideoURL != nil {
		fields["video_url"] = *patch.VideoURL
	}
	if patch.Gradient != nil && *patch.Gradient != "" {
		fields["gradient"] = *patch.Gradient
	} else if current, ok := s.Get(id); ok && current.Gradient != "" {
		fields["gradient"] = current.Gradient
	}
	if len(fields) == 0 {
		return nil
	}

	err := s.materials.Update(ctx, id, fields)
	metrics.CatalogMutations.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if err != nil {
		return s.writeFailure("update", err)
	}

	s.toasts.Success("Atualizado!")
	s.publish(ctx, events.Event{Type: events.MaterialUpdated, MaterialID: id})
	s.refreshAfterWrite(ctx)
	return nil
}

// Delete dispatches only when confirm approves the material about to go.
func (s *CatalogStore) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	target, ok := s.Get(id)
	if !ok {
		target = models.Material{Base: models.Base{ID: id}}
	}
	if confirm == nil || !confirm(target) {
		return newError(ErrNotConfirmed, "Exclusão não confirmada.", nil)
	}

	err := s.materials.Delete(ctx, id)
	metrics.CatalogMutations.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return s.writeFailure("delete", err)
	}

	s.toasts.Success("Excluído com sucesso!")
	s.publish(ctx, events.Event{Type: events.MaterialDeleted, MaterialID: id})
	s.refreshAfterWrite(ctx)
	return nil
}

// IncrementViews bumps the local counter right away and persists the
// increment in the background. A failed persist is logged and dropped.
func (s *CatalogStore) IncrementViews(ctx context.Context, id string) {
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items[i].Views++
	}
	s.mu.Unlock()
	s.subs.emit(struct{}{})

	persistCtx := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		err := s.materials.IncrementViews(persistCtx, id, 1)
		metrics.CatalogMutations.WithLabelValues("view", metrics.Outcome(err)).Inc()
		if err != nil {
			s.log.WithError(err).WithField("material_id", id).Warn("view persist failed")
			return
		}
		s.publish(persistCtx, events.Event{Type: events.MaterialViewed, MaterialID: id})
	}()
}

// AddComment rejects blank text without touching the database.
func (s *CatalogStore) AddComment(ctx context.Context, materialID, userName, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return newError(ErrValidation, "Comentário vazio.", nil)
	}
	if strings.TrimSpace(userName) == "" {
		userName = "Membro"
	}

	c := &models.Comment{MaterialID: materialID, UserName: userName, Text: text}
	err := s.comments.Create(ctx, c)
	metrics.CatalogMutations.WithLabelValues("comment", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.WithError(err).WithField("material_id", materialID).Warn("comment failed")
		s.toasts.Error("Erro ao comentar")
		return newError(ErrRemoteWrite, "Erro ao comentar", err)
	}

	s.publish(ctx, events.Event{Type: events.CommentAdded, MaterialID: materialID, Attributes: map[string]string{"user_name": userName}})
	s.refreshAfterWrite(ctx)
	return nil
}

// MarkRead adds userID to the material's readers, locally first. Only userID
// is sent to the database, which appends it to whatever readers it already
// holds. A failed persist removes userID locally again.
func (s *CatalogStore) MarkRead(ctx context.Context, id, userID string) error {
	if userID == "" {
		return newError(ErrValidation, "Usuário obrigatório.", nil)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return newError(ErrNotFound, "Conteúdo não encontrado.", nil)
	}
	if s.items[i].IsReadBy(userID) {
		s.mu.Unlock()
		return nil
	}
	s.items[i].ReadBy = models.NewReadBy(append(append([]string{}, s.items[i].ReadBy...), userID))
	s.mu.Unlock()
	s.subs.emit(struct{}{})

	err := s.materials.AddReader(ctx, id, userID)
	metrics.CatalogMutations.WithLabelValues("read", metrics.Outcome(err)).Inc()
	if err != nil {
		s.revertRead(id, userID)
		return s.writeFailure("read", err)
	}
	s.publish(ctx, events.Event{Type: events.MaterialRead, MaterialID: id, UserID: userID})
	return nil
}

func (s *CatalogStore) revertRead(id, userID string) {
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		kept := make([]string, 0, len(s.items[i].ReadBy))
		for _, r := range s.items[i].ReadBy {
			if r != userID {
				kept = append(kept, r)
			}
		}
		s.items[i].ReadBy = models.NewReadBy(kept)
	}
	s.mu.Unlock()
	s.subs.emit(struct{}{})
}

func (s *CatalogStore) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CatalogStore) refreshAfterWrite(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("refresh after write failed")
	}
}

func (s *CatalogStore) invalid(msg string) error {
	s.toasts.Error(msg)
	return newError(ErrValidation, msg, nil)
}

func (s *CatalogStore) writeFailure(op string, err error) error {
	kind := ErrRemoteWrite
	msg := remoteMessage(err)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = ErrNotFound
		msg = "Conteúdo não encontrado."
	case isUUIDMismatch(err):
		msg = msgUUIDMismatch
	}
	s.log.WithError(err).WithField("op", op).Warn("catalog write failed")
	s.toasts.Error(msg)
	return newError(kind, msg, err)
}

func (s *CatalogStore) publish(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", e.Type).Warn("failed to publish catalog event")
	}
}
