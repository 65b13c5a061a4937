package http_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hamgarian/do-real-shit/internal/domain"
	api "github.com/hamgarian/do-real-shit/internal/http"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/queue"
	"github.com/hamgarian/do-real-shit/internal/repo"
)

// fakeStore — in-memory реализация api.Store с той же семантикой, что и
// mongo-реализация (атомарные upsert'ы здесь сводятся к мьютексу).
type fakeStore struct {
	mu    sync.Mutex
	tasks []domain.Task
	users map[string]*domain.User
	board map[string]*domain.LeaderboardEntry

	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*domain.User),
		board: make(map[string]*domain.LeaderboardEntry),
	}
}

func (f *fakeStore) CreateTask(ctx context.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now().UTC()
	f.tasks = append(f.tasks, *t)
	return nil
}

func (f *fakeStore) ListTasksByUser(ctx context.Context, uid string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if t.UserID == uid {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateTaskStatus(ctx context.Context, uid, label, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched int64
	for i := range f.tasks {
		if f.tasks[i].UserID == uid && f.tasks[i].Label == label {
			f.tasks[i].Status = status
			matched++
		}
	}
	return matched, nil
}

func (f *fakeStore) DeleteTasks(ctx context.Context, uid, label string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Task
	var deleted int64
	for _, t := range f.tasks {
		if t.UserID == uid && t.Label == label {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	f.tasks = kept
	return deleted, nil
}

func (f *fakeStore) BumpLeaderboard(ctx context.Context, uid, email string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.board[uid]
	if !ok {
		e = &domain.LeaderboardEntry{UserID: uid}
		f.board[uid] = e
	}
	e.TotalMoney += delta
	e.Email = email
	return nil
}

func (f *fakeStore) GetOrCreateUser(ctx context.Context, uid, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[uid]; ok {
		cp := *u
		return &cp, nil
	}
	u := &domain.User{ID: uid, Email: email, Balance: 0, CreatedAt: time.Now().UTC()}
	f.users[uid] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) FindUser(ctx context.Context, uid string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[uid]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) SetBalance(ctx context.Context, uid, email string, balance int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		u = &domain.User{ID: uid, Email: email, CreatedAt: time.Now().UTC()}
		f.users[uid] = u
	}
	u.Balance = balance
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) ClaimUsername(ctx context.Context, uid, email, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id != uid && u.Username == username {
			return repo.ErrUsernameTaken
		}
	}
	u, ok := f.users[uid]
	if !ok {
		u = &domain.User{ID: uid, CreatedAt: time.Now().UTC()}
		f.users[uid] = u
	}
	u.Username = username
	u.Email = email
	return nil
}

func (f *fakeStore) ListUsersWithUsername(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		if u.Username != "" {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) userCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func (f *fakeStore) boardTotal(uid string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.board[uid]; ok {
		return e.TotalMoney
	}
	return 0
}

// fakeVerifier — подстановка identity provider: токен либо известен, либо нет.
type fakeVerifier struct {
	tokens map[string]domain.Identity
}

func (v *fakeVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if id, ok := v.tokens[token]; ok {
		cp := id
		return &cp, nil
	}
	return nil, errors.New("invalid token")
}

type fakePricer struct {
	out string
	err error
}

func (p *fakePricer) Price(ctx context.Context, input string) (string, error) {
	return p.out, p.err
}

// failingPub всегда возвращает ошибку — мёртвый брокер.
type failingPub struct{ calls int }

func (p *failingPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	p.calls++
	return errors.New("broker down")
}
func (p *failingPub) Close() error { return nil }

type testEnv struct {
	Store   *fakeStore
	Pricer  *fakePricer
	Handler *api.Handler
	Router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if _, err := log.Init(false); err != nil {
		t.Fatalf("log init: %v", err)
	}
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	pricer := &fakePricer{out: "50, godly"}
	verifier := &fakeVerifier{tokens: map[string]domain.Identity{
		"tok-u1": {ID: "u1", Email: "alice@example.com"},
		"tok-u2": {ID: "u2", Email: "bob@example.com"},
	}}

	h := api.NewHandler(store, pricer, queue.NewNoop(), nil, 0)
	r := api.NewRouter(h, verifier, 1000)
	return &testEnv{Store: store, Pricer: pricer, Handler: h, Router: r}
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.Router.ServeHTTP(w, req)
	return w
}
