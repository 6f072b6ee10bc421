package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/social_feed/internal/db"
	"github.com/Skotchmaster/social_feed/internal/hash"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/tokens"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []mykafka.Event
	topics []string
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(mykafka.Event); ok {
		p.events = append(p.events, ev)
		p.topics = append(p.topics, topic)
	}
	return p.err
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uint]string
	deleted []uint
	hits    []uint
	total   int64
	err     error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{indexed: map[uint]string{}} }

func (f *fakeIndex) IndexPost(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = p.Content
	return f.err
}

func (f *fakeIndex) DeletePost(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) SearchPosts(context.Context, string, int, int) (int64, []uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total, f.hits, f.err
}

type testEnv struct {
	store     *repo.GormRepo
	clock     *fakeClock
	tokens    *tokens.Manager
	events    *fakePublisher
	index     *fakeIndex
	auth      *AuthService
	users     *UserService
	posts     *PostService
	tutorials *TutorialService
	news      *NewsService
}

const testTTL = 15 * time.Minute

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(ctx, gdb))

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	tm, err := tokens.NewManager([]byte("service-test-secret-123456"), testTTL, clock)
	require.NoError(t, err)

	store := &repo.GormRepo{DB: gdb}
	hasher := hash.Bcrypt{Cost: bcrypt.MinCost}
	events := &fakePublisher{}
	index := newFakeIndex()

	return &testEnv{
		store:     store,
		clock:     clock,
		tokens:    tm,
		events:    events,
		index:     index,
		auth:      &AuthService{Store: store, Hasher: hasher, Tokens: tm, Events: events},
		users:     &UserService{Store: store, Hasher: hasher, Index: index, Events: events},
		posts:     &PostService{Store: store, Index: index, Events: events},
		tutorials: &TutorialService{Store: store},
		news:      &NewsService{Store: store},
	}
}

func (e *testEnv) signup(t *testing.T, name string) transport.UserView {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), transport.SignupRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: name + "-password",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) post(t *testing.T, owner models.UserID, content string) transport.PostView {
	t.Helper()
	p, err := e.posts.CreatePost(context.Background(), owner, transport.CreatePostRequest{Content: content})
	require.NoError(t, err)
	return p
}

func (e *testEnv) countUsers(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.store.DB.Model(&models.User{}).Count(&n).Error)
	return n
}

// blindStore hides existing users from the uniqueness pre-check, as if a
// concurrent signup had committed between check and insert.
type blindStore struct{ repo.Store }

func (blindStore) FindUserByEmail(context.Context, string) (*models.User, error) {
	return nil, repo.ErrNotFound
}

func (blindStore) FindUserByUsername(context.Context, string) (*models.User, error) {
	return nil, repo.ErrNotFound
}

func (b blindStore) Tx(ctx context.Context, fn func(repo.Store) error) error {
	return b.Store.Tx(ctx, func(st repo.Store) error { return fn(blindStore{st}) })
}

var errDriver = errors.New("driver: bad connection")

// brokenStore fails selected calls with a raw driver error.
type brokenStore struct {
	repo.Store
	failCreateUser bool
	failCountLikes bool
}

func (b brokenStore) CreateUser(ctx context.Context, u *models.User) error {
	if b.failCreateUser {
		return errDriver
	}
	return b.Store.CreateUser(ctx, u)
}

func (b brokenStore) CountLikes(ctx context.Context, ids []uint) (map[uint]int64, error) {
	if b.failCountLikes {
		return nil, errDriver
	}
	return b.Store.CountLikes(ctx, ids)
}

func (b brokenStore) Tx(ctx context.Context, fn func(repo.Store) error) error {
	return b.Store.Tx(ctx, func(st repo.Store) error {
		return fn(brokenStore{Store: st, failCreateUser: b.failCreateUser, failCountLikes: b.failCountLikes})
	})
}
