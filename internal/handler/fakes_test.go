package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/repository"
)

// fakeUserStore is an in-memory UserStore with the same uniqueness
// semantics the MySQL repo enforces through its unique email index.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeUserStore) Update(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = existing.PasswordHash
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// fakeTokenStore mirrors TokenRepo's delete-if-exists semantics.
type fakeTokenStore struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]model.RefreshTokenRecord
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: map[uint64]model.RefreshTokenRecord{}}
}

func (s *fakeTokenStore) CreateRefreshToken(_ context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.records[s.nextID] = model.RefreshTokenRecord{ID: s.nextID, UserID: userID, ExpiresAt: expiresAt}
	return s.nextID, nil
}

func (s *fakeTokenStore) GetRefreshToken(_ context.Context, id uint64) (model.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return model.RefreshTokenRecord{}, repository.ErrNotFound
	}
	return rec, nil
}

func (s *fakeTokenStore) DeleteRefreshTokenIfExists(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *fakeTokenStore) DeleteRefreshTokensForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if rec.UserID == userID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *fakeTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// testEnv bundles an AuthHandler over in-memory stores with a freshly
// generated signing key.
type testEnv struct {
	users   *fakeUserStore
	records *fakeTokenStore
	tokens  *auth.TokenService
	auth    *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	kp, err := auth.NewKeyProvider(priv)
	if err != nil {
		t.Fatal(err)
	}
	users := newFakeUserStore()
	records := newFakeTokenStore()
	tokens := auth.NewTokenService(kp, records, users, "identity-service", time.Hour, 7*24*time.Hour)

	cfg := config.Config{Env: "test", BcryptCost: bcrypt.MinCost}
	ah := NewAuthHandler(cfg, users, tokens)
	ah.PublishEvents = false // no broker in tests
	return &testEnv{users: users, records: records, tokens: tokens, auth: ah}
}
