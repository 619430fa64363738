package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/events"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/notify"
	"github.com/RigelNana/vitalicio/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func authenticate(t *testing.T, m *SessionManager, ctx context.Context, mode AuthMode, email, password, name string) *models.User {
	t.Helper()
	u, err := m.Authenticate(ctx, mode, email, password, name)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func newToasts(t *testing.T) *notify.Queue {
	q := notify.NewQueue(notify.Options{TTL: time.Minute})
	t.Cleanup(q.Close)
	return q
}

func toastMessages(q *notify.Queue) []string {
	var out []string
	for _, e := range q.Entries() {
		out = append(out, e.Message)
	}
	return out
}

// fakeDB backs both the material and the comment fakes so a refresh sees
// comments written through the comment repository.
type fakeDB struct {
	mu        sync.Mutex
	materials []models.Material
	comments  []models.Comment
	calls     map[string]int
	fail      map[string]error
	updates   []map[string]interface{}
	clock     time.Time
	// readGates holds AddReader for a user until the channel is closed.
	readGates map[string]chan struct{}
}

func newFakeDB(seed ...models.Material) *fakeDB {
	db := &fakeDB{
		calls: map[string]int{},
		fail:  map[string]error{},
		clock: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	for i := len(seed) - 1; i >= 0; i-- {
		m := seed[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		db.clock = db.clock.Add(time.Minute)
		m.CreatedAt = db.clock
		db.materials = append(db.materials, m)
	}
	return db
}

func (db *fakeDB) call(op string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls[op]++
	return db.fail[op]
}

func (db *fakeDB) count(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

func (db *fakeDB) setFail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[op] = err
}

func (db *fakeDB) holdReads(userID string) chan struct{} {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.readGates == nil {
		db.readGates = map[string]chan struct{}{}
	}
	gate := make(chan struct{})
	db.readGates[userID] = gate
	return gate
}

func (db *fakeDB) readGate(userID string) chan struct{} {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.readGates[userID]
}

func (db *fakeDB) find(id string) int {
	for i := range db.materials {
		if db.materials[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *fakeDB) material(id string) models.Material {
	db.mu.Lock()
	defer db.mu.Unlock()
	if i := db.find(id); i >= 0 {
		return db.materials[i].Clone()
	}
	return models.Material{}
}

type fakeMaterials struct{ *fakeDB }

func (f fakeMaterials) Create(ctx context.Context, m *models.Material) error {
	if err := f.call("create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	f.clock = f.clock.Add(time.Minute)
	m.CreatedAt = f.clock
	f.materials = append(f.materials, m.Clone())
	return nil
}

func (f fakeMaterials) GetByID(ctx context.Context, id string) (*models.Material, error) {
	if err := f.call("get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(id); i >= 0 {
		m := f.materials[i].Clone()
		return &m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeMaterials) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	if err := f.call("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	f.updates = append(f.updates, patch)
	m := &f.materials[i]
	for k, v := range patch {
		switch k {
		case "title":
			m.Title = v.(string)
		case "type":
			m.Type = v.(models.MaterialType)
		case "category":
			m.Category = v.(string)
		case "description":
			m.Description = v.(string)
		case "image_url":
			m.ImageURL = v.(string)
		case "video_url":
			m.VideoURL = v.(string)
		case "gradient":
			m.Gradient = v.(string)
		}
	}
	return nil
}

func (f fakeMaterials) Delete(ctx context.Context, id string) error {
	if err := f.call("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	f.materials = append(f.materials[:i], f.materials[i+1:]...)
	return nil
}

func (f fakeMaterials) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.materials)), nil
}

func (f fakeMaterials) ListWithComments(ctx context.Context) ([]models.Material, error) {
	if err := f.call("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Material, 0, len(f.materials))
	for _, m := range f.materials {
		m = m.Clone()
		m.Comments = nil
		for _, c := range f.comments {
			if c.MaterialID == m.ID {
				m.Comments = append(m.Comments, c)
			}
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeMaterials) IncrementViews(ctx context.Context, id string, delta int64) error {
	if err := f.call("views"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	f.materials[i].Views += delta
	return nil
}

func (f fakeMaterials) AddReader(ctx context.Context, id, userID string) error {
	if err := f.call("read"); err != nil {
		return err
	}
	if gate := f.readGate(userID); gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	if !f.materials[i].IsReadBy(userID) {
		f.materials[i].ReadBy = models.NewReadBy(append(append([]string{}, f.materials[i].ReadBy...), userID))
	}
	return nil
}

type fakeComments struct{ *fakeDB }

func (f fakeComments) Create(ctx context.Context, c *models.Comment) error {
	if err := f.call("comment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	f.clock = f.clock.Add(time.Minute)
	c.CreatedAt = f.clock
	f.comments = append(f.comments, *c)
	return nil
}

func (f fakeComments) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeComments) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	return gorm.ErrRecordNotFound
}

func (f fakeComments) Delete(ctx context.Context, id string) error {
	return gorm.ErrRecordNotFound
}

func (f fakeComments) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.comments)), nil
}

type fakeSettingsRepo struct {
	mu      sync.Mutex
	rec     *models.Settings
	getErr  error
	saveErr error
	upserts int
}

func (f *fakeSettingsRepo) Get(ctx context.Context, id string) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.rec == nil || f.rec.ID != id {
		return nil, nil
	}
	rec := *f.rec
	return &rec, nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, rec *models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *rec
	f.rec = &cp
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	calls   int
	paths   []string
	opts    []storage.PutOptions
	failErr error
}

func (s *fakeObjectStore) Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, opts storage.PutOptions) (string, error) {
	s.mu.Lock()
	s.calls++
	failErr := s.failErr
	s.mu.Unlock()
	if failErr != nil {
		return "", failErr
	}
	if _, err := io.Copy(io.Discard, data); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	s.opts = append(s.opts, opts)
	return path, nil
}

func (s *fakeObjectStore) PublicURL(bucket, path string) string {
	return "http://minio.local/" + bucket + "/" + path
}

func (s *fakeObjectStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeAccount struct {
	password string
	identity auth.Identity
}

type fakeProvider struct {
	mu         sync.Mutex
	calls      int
	session    *auth.Identity
	accounts   map[string]fakeAccount
	signOutErr error
	subs       map[int]func(*auth.Identity)
	nextSub    int
	signUps    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]fakeAccount{}, subs: map[int]func(*auth.Identity){}}
}

func (p *fakeProvider) addAccount(email, password, fullName string, roles ...string) auth.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := auth.Identity{ID: "u-" + email, Email: email, FullName: fullName, Roles: roles}
	p.accounts[email] = fakeAccount{password: password, identity: id}
	return id
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) GetSession(ctx context.Context) (*auth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.session == nil {
		return nil, nil
	}
	id := *p.session
	return &id, nil
}

func (p *fakeProvider) OnSessionChange(cb func(*auth.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) error {
	p.mu.Lock()
	p.calls++
	acc, ok := p.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		p.mu.Unlock()
		return auth.ErrInvalidCredentials
	}
	id := acc.identity
	p.session = &id
	p.mu.Unlock()
	p.emit(&id)
	return nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password, fullName string) error {
	p.mu.Lock()
	p.calls++
	p.signUps = append(p.signUps, fullName)
	if _, ok := p.accounts[email]; ok {
		p.mu.Unlock()
		return auth.ErrEmailAlreadyInUse
	}
	id := auth.Identity{ID: "u-" + email, Email: email, FullName: fullName}
	p.accounts[email] = fakeAccount{password: password, identity: id}
	p.session = &id
	p.mu.Unlock()
	p.emit(&id)
	return nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.calls++
	if p.signOutErr != nil {
		err := p.signOutErr
		p.mu.Unlock()
		return err
	}
	p.session = nil
	p.mu.Unlock()
	p.emit(nil)
	return nil
}

// emitExternal simulates a change made outside this process, such as another
// tab signing out.
func (p *fakeProvider) emitExternal(id *auth.Identity) {
	p.mu.Lock()
	p.session = id
	p.mu.Unlock()
	p.emit(id)
}

func (p *fakeProvider) emit(id *auth.Identity) {
	p.mu.Lock()
	cbs := make([]func(*auth.Identity), 0, len(p.subs))
	for _, cb := range p.subs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		if id == nil {
			cb(nil)
			continue
		}
		cp := *id
		cb(&cp)
	}
}
