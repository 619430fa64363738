package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/RigelNana/vitalicio/events"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/pkg/metrics"
	"github.com/RigelNana/vitalicio/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultMaxUploadBytes = 5 << 20

// File is an upload as received from the presentation layer.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// UploadTarget receives the public URL of a finished upload.
type UploadTarget interface {
	SetImageURL(url string)
}

type UploadOptions struct {
	Bucket   string
	MaxBytes int64
}

type UploadPipeline struct {
	store     storage.ObjectStore
	publisher events.Publisher
	toasts    *notify.Queue
	log       logrus.FieldLogger
	bucket    string
	maxBytes  int64
	now       func() time.Time
}

func NewUploadPipeline(store storage.ObjectStore, publisher events.Publisher, toasts *notify.Queue, opts UploadOptions, log logrus.FieldLogger) *UploadPipeline {
	if opts.Bucket == "" {
		opts.Bucket = "covers"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxUploadBytes
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &UploadPipeline{
		store:     store,
		publisher: publisher,
		toasts:    toasts,
		log:       log.WithField("component", "upload"),
		bucket:    opts.Bucket,
		maxBytes:  opts.MaxBytes,
		now:       time.Now,
	}
}

// Upload stores f under a fresh key and returns its public URL. Oversized
// files are rejected before the object store is contacted.
func (p *UploadPipeline) Upload(ctx context.Context, f File) (string, error) {
	if f.Size > p.maxBytes {
		msg := fmt.Sprintf("Arquivo muito grande (Máx %dMB).", p.maxBytes>>20)
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		p.toasts.Error(msg)
		return "", newError(ErrUploadSize, msg, nil)
	}
	if f.Reader == nil {
		return "", newError(ErrValidation, "Nenhum arquivo enviado.", nil)
	}

	key := p.objectKey(f.Name)
	_, err := p.store.Upload(ctx, p.bucket, key, f.Reader, f.Size, storage.PutOptions{
		ContentType:  f.ContentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		p.log.WithError(err).WithField("key", key).Warn("upload failed")
		if isPermissionDenied(err) {
			p.toasts.Error(msgRLSRemediation)
			return "", newError(ErrUploadPermission, msgRLSRemediation, err)
		}
		msg := remoteMessage(err)
		p.toasts.Error(msg)
		return "", newError(ErrRemoteWrite, msg, err)
	}

	url := p.store.PublicURL(p.bucket, key)
	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	p.toasts.Success("Upload concluído!")
	if err := p.publisher.Publish(ctx, events.Event{
		Type:       events.FileUploaded,
		Attributes: map[string]string{"key": key, "url": url},
		At:         p.now(),
	}); err != nil {
		p.log.WithError(err).Warn("failed to publish upload event")
	}
	return url, nil
}

// UploadInto uploads f and writes the resulting URL into target.
func (p *UploadPipeline) UploadInto(ctx context.Context, f File, target UploadTarget) (string, error) {
	url, err := p.Upload(ctx, f)
	if err != nil {
		return "", err
	}
	if target != nil {
		target.SetImageURL(url)
	}
	return url, nil
}

// objectKey is <unix-millis>-<random>.<ext>.
func (p *UploadPipeline) objectKey(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		ext = "bin"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s.%s", p.now().UnixMilli(), suffix, ext)
}
