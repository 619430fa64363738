package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/database"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/RigelNana/vitalicio/service"
	"github.com/RigelNana/vitalicio/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type memoryStore struct {
	mu    sync.Mutex
	calls int
}

func (s *memoryStore) Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, opts storage.PutOptions) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	_, err := io.Copy(io.Discard, data)
	return path, err
}

func (s *memoryStore) PublicURL(bucket, path string) string {
	return "http://minio.local/" + bucket + "/" + path
}

type testEnv struct {
	router *gin.Engine
	portal *service.Portal
	tokens *auth.TokenIssuer
	store  *memoryStore
	db     *gorm.DB
}

func setup(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	provider, err := auth.NewLocalProvider(repository.NewAccountRepository(db), auth.LocalProviderArgs{
		Secret:     []byte("test-secret"),
		Expiry:     time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)
	require.NoError(t, err)

	toasts := notify.NewQueue(notify.Options{TTL: time.Minute})
	store := &memoryStore{}
	session := service.NewSessionManager(provider, toasts, service.SessionOptions{
		AdminEmail: "admin@academia.com",
		Bypass:     &service.BypassCredentials{Email: "admin@academia.com", Password: "admin123"},
	}, log)
	portal := service.NewPortal(
		session,
		service.NewCatalogStore(repository.NewMaterialRepository(db), repository.NewCommentRepository(db), nil, toasts, log),
		service.NewSettingsStore(repository.NewSettingsRepository(db), nil, toasts, log),
		service.NewUploadPipeline(store, nil, toasts, service.UploadOptions{}, log),
		toasts,
		log,
	)
	_, err = portal.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(portal.Close)

	tokens, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	return &testEnv{router: Setup(NewHandler(portal, tokens, log)), portal: portal, tokens: tokens, store: store, db: db}
}

// do sends an anonymous request.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.send(t, "", method, path, body)
}

func (e *testEnv) send(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type authResponse struct {
	User  models.User
	Token string
}

func (e *testEnv) loginAdmin(t *testing.T) string {
	w := e.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "admin@academia.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp authResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRoutesRequireBearerToken(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/materials", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())

	// a signed-in admin does not authorize anyone else
	env.loginAdmin(t)
	w = env.do(t, http.MethodPost, "/api/materials", gin.H{"title": "Anônimo"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPut, "/api/settings", models.DefaultSettings())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.send(t, "forged.token.value", http.MethodPost, "/api/materials", gin.H{"title": "Forjado"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Material{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBypassLoginAndPublish(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	var session struct{ User *models.User }
	decode(t, env.send(t, token, http.MethodGet, "/api/auth/session", nil), &session)
	require.NotNil(t, session.User)
	assert.True(t, session.User.IsAdmin)
	assert.Equal(t, "Administrador Elite", session.User.Name)
	assert.Equal(t, service.BypassUserID, session.User.ID)

	w := env.send(t, token, http.MethodPost, "/api/materials", gin.H{"title": "", "type": "curso"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.send(t, token, http.MethodPost, "/api/materials", gin.H{
		"title":    "Guia de Investimentos",
		"type":     "ebook",
		"category": "Finanças",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var toasts struct{ Toasts []notify.Toast }
	decode(t, env.send(t, token, http.MethodGet, "/api/notifications", nil), &toasts)
	var messages []string
	for _, toast := range toasts.Toasts {
		messages = append(messages, toast.Message)
	}
	assert.Equal(t, []string{"Título é obrigatório", "Publicado!"}, messages)
}

func TestListMaterialsCriteriaArePerRequest(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	for _, draft := range []gin.H{
		{"title": "Guia de Investimentos", "type": "ebook", "category": "Finanças"},
		{"title": "Foco Total", "type": "curso", "category": "Produtividade"},
	} {
		w := env.send(t, token, http.MethodPost, "/api/materials", draft)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type listResponse struct {
		Items    []models.Material
		Total    int
		Criteria struct{ Search, Category, Tab string }
		Status   string
	}
	var list listResponse
	decode(t, env.send(t, token, http.MethodGet, "/api/materials?search=guia&tab=ebook", nil), &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Guia de Investimentos", list.Items[0].Title)
	assert.Equal(t, "connected", list.Status)

	list = listResponse{}
	decode(t, env.send(t, token, http.MethodGet, "/api/materials?tab=curso", nil), &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Foco Total", list.Items[0].Title)
	assert.Empty(t, list.Criteria.Search)

	list = listResponse{}
	decode(t, env.send(t, token, http.MethodGet, "/api/materials", nil), &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "Todos", list.Criteria.Category)
	assert.Equal(t, "todos", list.Criteria.Tab)
}

func TestMemberCannotAdminister(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": "bia@mail.com", "password": "segredo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var registered authResponse
	decode(t, w, &registered)
	assert.Equal(t, "bia", registered.User.Name)
	assert.False(t, registered.User.IsAdmin)
	token := registered.Token
	require.NotEmpty(t, token)

	w = env.send(t, token, http.MethodGet, "/api/materials", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.send(t, token, http.MethodPost, "/api/materials", gin.H{"title": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.send(t, token, http.MethodPut, "/api/settings", gin.H{"heroTitle": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.send(t, token, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.portal.Session.Current())
	w = env.send(t, token, http.MethodGet, "/api/materials", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "bia@mail.com", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutLeavesOtherSessionsAlone(t *testing.T) {
	env := setup(t)
	adminToken := env.loginAdmin(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": "caio@mail.com", "password": "segredo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var member authResponse
	decode(t, w, &member)
	require.Equal(t, member.User.ID, env.portal.Session.Current().ID)

	w = env.send(t, adminToken, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, env.portal.Session.Current())
	assert.Equal(t, member.User.ID, env.portal.Session.Current().ID)
	w = env.send(t, member.Token, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.send(t, adminToken, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMaterialLifecycle(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	var created struct{ Material models.Material }
	w := env.send(t, token, http.MethodPost, "/api/materials", gin.H{"title": "Foco Total", "category": "Produtividade"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &created)
	id := created.Material.ID
	require.NotEmpty(t, id)

	w = env.send(t, token, http.MethodPost, "/api/materials/"+id+"/view", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	env.portal.Catalog.Wait()
	var stored models.Material
	require.NoError(t, env.db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, int64(1), stored.Views)

	w = env.send(t, token, http.MethodPost, "/api/materials/"+id+"/comments", gin.H{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.send(t, token, http.MethodPost, "/api/materials/"+id+"/comments", gin.H{"text": "Muito bom"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.send(t, token, http.MethodPost, "/api/materials/"+id+"/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Material models.Material
		IsRead   bool
	}
	decode(t, env.send(t, token, http.MethodGet, "/api/materials/"+id, nil), &detail)
	assert.True(t, detail.IsRead)
	require.Len(t, detail.Material.Comments, 1)
	assert.Equal(t, "Administrador Elite", detail.Material.Comments[0].UserName)

	w = env.send(t, token, http.MethodPut, "/api/materials/"+id, gin.H{"description": "Rotinas de alta performance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, env.db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, "Rotinas de alta performance", stored.Description)
	assert.Equal(t, created.Material.Gradient, stored.Gradient)

	w = env.send(t, token, http.MethodDelete, "/api/materials/"+id, nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	w = env.send(t, token, http.MethodDelete, "/api/materials/"+id+"?confirm=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.send(t, token, http.MethodGet, "/api/materials/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	next := models.DefaultSettings()
	next.HeroTitle = "NOVO HERO"
	w := env.send(t, token, http.MethodPut, "/api/settings", next)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Settings models.AppSettings
		Status   string
	}
	decode(t, env.send(t, token, http.MethodGet, "/api/settings", nil), &got)
	assert.Equal(t, next, got.Settings)

	decode(t, env.send(t, token, http.MethodPost, "/api/refresh", nil), &struct{}{})
	decode(t, env.send(t, token, http.MethodGet, "/api/settings", nil), &got)
	assert.Equal(t, "NOVO HERO", got.Settings.HeroTitle)
	assert.Equal(t, "connected", got.Status)
}

func uploadRequest(t *testing.T, token, target, name string, size int) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(make([]byte, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads?target="+target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploads(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, token, "material", "capa.png", 6<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, env.store.calls)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, token, "settings", "hero.jpg", 1024))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		URL      string
		Settings models.AppSettings
	}
	decode(t, w, &resp)
	assert.Regexp(t, `^http://minio\.local/covers/\d+-[0-9a-f]+\.jpg$`, resp.URL)
	assert.Equal(t, resp.URL, resp.Settings.HeroImageURL)
	assert.Equal(t, models.DefaultSettings().HeroImageURL, env.portal.Settings.Current().HeroImageURL)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, token, "banner", "x.png", 10))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusReportsStores(t *testing.T) {
	env := setup(t)
	token := env.loginAdmin(t)

	var status map[string]string
	decode(t, env.send(t, token, http.MethodGet, "/api/status", nil), &status)
	assert.Equal(t, "connected", status["catalog"])
	assert.Equal(t, "connected", status["settings"])
}

func TestDocsDescribeEveryRoute(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]json.RawMessage
	}
	decode(t, w, &doc)
	for _, route := range env.router.Routes() {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path := strings.ReplaceAll(route.Path, ":id", "{id}")
		assert.Contains(t, doc.Paths, path, route.Method+" "+route.Path)
	}

	w = env.do(t, http.MethodGet, "/docs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}
