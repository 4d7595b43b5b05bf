package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vanguardmoney/services/internal/models"
	"github.com/vanguardmoney/services/internal/repository"
)

// memoryStore is an in-memory UserStore with the same uniqueness contract as
// the Postgres repository: Create is atomic and rejects duplicate emails.
type memoryStore struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]string

	failLastLogin bool
	lookupErr     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(s.byID[id]), nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *memoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	s.byID[user.ID] = copyUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *memoryStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLastLogin {
		return errors.New("write failed")
	}
	user, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	t := at
	user.LastLoginAt = &t
	return nil
}

func (s *memoryStore) setActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[id]; ok {
		user.IsActive = active
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func newTestService(store *memoryStore) *Service {
	hasher := NewHasher(bcrypt.MinCost)
	tokens := NewTokenService("test-secret", time.Hour, "auth-microservice")
	return NewService(store, hasher, tokens, nil, nil)
}

const validPassword = "Abcdef1!"

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:     "A@B.com",
		Password:  validPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if session.User.Email != "a@b.com" {
		t.Errorf("expected normalized email a@b.com, got %s", session.User.Email)
	}
	if !session.User.IsActive {
		t.Error("expected new user to be active")
	}
	if session.Token == "" {
		t.Error("expected a token")
	}
	if session.ExpiresIn != 3600 {
		t.Errorf("expected expiresIn 3600, got %d", session.ExpiresIn)
	}

	// The returned payload must never contain credential material.
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Errorf("session payload leaks password material: %s", raw)
	}

	// The token must decode back to the created user.
	check, err := svc.VerifyToken(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if check.Claims.UserID != session.User.ID {
		t.Errorf("token subject %s does not match user %s", check.Claims.UserID, session.User.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), RegisterInput{Email: "A@B.COM ", Password: validPassword})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	const attempts = 2
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), RegisterInput{Email: "race@b.com", Password: validPassword})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != 1 {
		t.Fatalf("expected exactly one success and one duplicate, got %d/%d", successes, duplicates)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1!"},
		{"no uppercase", "abcdef1!"},
		{"no lowercase", "ABCDEF1!"},
		{"no digit", "Abcdefg!"},
		{"no special", "Abcdefg1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemoryStore())
			_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: tt.password})
			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != "password" {
				t.Fatalf("expected single password field error, got %+v", ve.Fields)
			}
		})
	}
}

func TestRegisterCollectsAllFieldErrors(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "x@",
		Password:  "weak",
		FirstName: strings.Repeat("a", 51),
		LastName:  strings.Repeat("b", 51),
	})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %+v", len(ve.Fields), ve.Fields)
	}
}

func TestLoginSuccessUpdatesLastLogin(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	reg, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.LastLoginAt != nil {
		t.Error("expected no last login before first login")
	}

	session, err := svc.Login(context.Background(), "a@b.com", validPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.User.LastLoginAt == nil {
		t.Error("expected last login to be set after login")
	}

	stored, err := store.FindByID(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("expected last login to be persisted")
	}
}

func TestLoginIndistinguishableFailures(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "a@b.com", "wrong")
	_, missingUser := svc.Login(context.Background(), "nobody@b.com", validPassword)

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(missingUser, ErrInvalidCredentials) {
		t.Fatalf("missing user: expected ErrInvalidCredentials, got %v", missingUser)
	}
	if wrongPassword.Error() != missingUser.Error() {
		t.Fatal("expected identical error for wrong password and missing user")
	}
}

func TestLoginInactiveUser(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	store.setActive(session.User.ID, false)

	if _, err := svc.Login(context.Background(), "a@b.com", validPassword); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestLoginSurvivesLastLoginWriteFailure(t *testing.T) {
	store := newMemoryStore()
	store.failLastLogin = true
	svc := newTestService(store)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword}); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := svc.Login(context.Background(), "a@b.com", validPassword)
	if err != nil {
		t.Fatalf("expected login to succeed despite timestamp failure, got %v", err)
	}
	if session.User.LastLoginAt != nil {
		t.Error("expected last login to stay unset when the write fails")
	}
}

func TestVerifyTokenDeactivatedUser(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.VerifyToken(context.Background(), session.Token); err != nil {
		t.Fatalf("verify before deactivation: %v", err)
	}

	store.setActive(session.User.ID, false)

	if _, err := svc.VerifyToken(context.Background(), session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after deactivation, got %v", err)
	}
}

func TestVerifyTokenUnknownSubject(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	// A well-signed token whose subject was never persisted.
	token, err := NewTokenService("test-secret", time.Hour, "auth-microservice").Issue("ghost-user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.VerifyToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown subject, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	session, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: validPassword, FirstName: "Ada"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.GetProfile(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Email != "a@b.com" || user.FirstName != "Ada" {
		t.Errorf("unexpected profile: %+v", user)
	}

	if _, err := svc.GetProfile(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetProfileStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.lookupErr = errors.New("connection refused")
	svc := newTestService(store)

	if _, err := svc.GetProfile(context.Background(), "any"); !errors.Is(err, ErrProfileFetchFailed) {
		t.Fatalf("expected ErrProfileFetchFailed, got %v", err)
	}
}
