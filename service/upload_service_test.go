package service

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/RigelNana/vitalicio/models"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUploads(t *testing.T) (*UploadPipeline, *fakeObjectStore) {
	store := &fakeObjectStore{}
	p := NewUploadPipeline(store, nil, newToasts(t), UploadOptions{}, quietLogger())
	return p, store
}

func fileOfSize(name string, size int) File {
	return File{Name: name, Size: int64(size), ContentType: "image/png", Reader: bytes.NewReader(make([]byte, size))}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	p, store := setupUploads(t)

	url, err := p.Upload(context.Background(), fileOfSize("capa.png", 6<<20))

	assert.Empty(t, url)
	assert.ErrorIs(t, err, ErrUploadSize)
	assert.Zero(t, store.callCount())
	assert.Equal(t, []string{"Arquivo muito grande (Máx 5MB)."}, toastMessages(p.toasts))
}

func TestUploadConcurrentKeysAreDistinct(t *testing.T) {
	p, store := setupUploads(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		urls = map[string]bool{}
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			url, err := p.Upload(context.Background(), fileOfSize("capa.PNG", 4<<20))
			assert.NoError(t, err)
			mu.Lock()
			urls[url] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, urls, 2)
	require.Len(t, store.paths, 2)
	key := regexp.MustCompile(`^\d+-[0-9a-f]{12}\.png$`)
	for _, path := range store.paths {
		assert.Regexp(t, key, path)
	}
	for _, opts := range store.opts {
		assert.Equal(t, "max-age=3600", opts.CacheControl)
	}
}

func TestUploadPermissionErrorIsRemapped(t *testing.T) {
	p, store := setupUploads(t)
	store.failErr = minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied.", StatusCode: 403}

	_, err := p.Upload(context.Background(), fileOfSize("capa.jpg", 1024))

	assert.ErrorIs(t, err, ErrUploadPermission)
	assert.Equal(t, msgRLSRemediation, err.Error())
	assert.Equal(t, []string{msgRLSRemediation}, toastMessages(p.toasts))
}

func TestUploadOtherFailure(t *testing.T) {
	p, store := setupUploads(t)
	store.failErr = errors.New("dial tcp: connection refused")

	_, err := p.Upload(context.Background(), fileOfSize("capa.jpg", 1024))

	assert.ErrorIs(t, err, ErrRemoteWrite)
	assert.NotErrorIs(t, err, ErrUploadPermission)
}

func TestUploadIntoTargets(t *testing.T) {
	p, _ := setupUploads(t)
	ctx := context.Background()

	draft := &MaterialDraft{Title: "Foco"}
	url, err := p.UploadInto(ctx, fileOfSize("capa.webp", 2048), draft)
	require.NoError(t, err)
	assert.Equal(t, url, draft.ImageURL)
	assert.Contains(t, url, "http://minio.local/covers/")

	settings := models.DefaultSettings()
	url, err = p.UploadInto(ctx, fileOfSize("hero", 2048), &settings)
	require.NoError(t, err)
	assert.Equal(t, url, settings.HeroImageURL)
	assert.Regexp(t, `\.bin$`, url)
}
