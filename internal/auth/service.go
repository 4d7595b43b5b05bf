package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanguardmoney/services/internal/events"
	"github.com/vanguardmoney/services/internal/models"
	"github.com/vanguardmoney/services/internal/repository"
)

// UserStore is the credential store consumed by the workflow. Create must
// return repository.ErrDuplicateEmail when the unique email index rejects
// the row, so concurrent duplicate registrations resolve to exactly one
// success.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// Service orchestrates registration, login, token verification and profile
// reads. Each operation is a single transition evaluated against current
// store state; nothing is cached between requests.
type Service struct {
	store     UserStore
	hasher    *Hasher
	tokens    *TokenService
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewService wires the workflow. publisher may be nil; event emission is
// best-effort and never affects the outcome of an operation.
func NewService(store UserStore, hasher *Hasher, tokens *TokenService, publisher *events.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, publisher: publisher, logger: logger}
}

// RegisterInput carries the registration request fields. FirstName and
// LastName are optional.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is the payload returned by Register and Login. ExpiresIn is the
// token lifetime in seconds.
type Session struct {
	User      *models.SafeUser `json:"user"`
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expiresIn"`
}

// TokenCheck is the payload returned by VerifyToken.
type TokenCheck struct {
	User   *models.SafeUser `json:"user"`
	Claims *Claims          `json:"tokenData"`
}

// Register creates a new active user and issues a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("register: lookup failed", zap.Error(err))
		return nil, ErrRegistrationFailed
	}

	if ve := validateRegistration(email, in.Password, in.FirstName, in.LastName); ve != nil {
		return nil, ve
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("register: hash failed", zap.Error(err))
		return nil, ErrRegistrationFailed
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		s.logger.Error("register: create failed", zap.Error(err))
		return nil, ErrRegistrationFailed
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("register: token issue failed", zap.Error(err))
		return nil, ErrRegistrationFailed
	}

	s.emit(ctx, events.UserRegistered, events.UserRegisteredEvent{UserID: user.ID, Email: user.Email})

	return &Session{
		User:      user.Safe(),
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Login authenticates email/password and issues a token. A missing user and
// a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login: lookup failed", zap.Error(err))
		return nil, ErrLoginFailed
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Best effort: a failed timestamp write must not abort the login.
	now := time.Now().UTC()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("login: last-login update failed", zap.String("userId", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("login: token issue failed", zap.Error(err))
		return nil, ErrLoginFailed
	}

	s.emit(ctx, events.UserLoggedIn, events.UserLoggedInEvent{UserID: user.ID, Email: user.Email})

	return &Session{
		User:      user.Safe(),
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// VerifyToken validates the token and checks that its subject still exists
// and is active. A missing or deactivated user is reported as ErrInvalidToken
// so callers cannot probe which accounts exist.
func (s *Service) VerifyToken(ctx context.Context, token string) (*TokenCheck, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("verify: lookup failed", zap.Error(err))
		return nil, ErrTokenVerificationFailed
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return &TokenCheck{User: user.Safe(), Claims: claims}, nil
}

// GetProfile returns the safe projection for userID. Callers are expected to
// have verified a token for this user already.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.SafeUser, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("profile: lookup failed", zap.Error(err))
		return nil, ErrProfileFetchFailed
	}
	return user.Safe(), nil
}

func (s *Service) emit(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// passwordSpecials matches the set the original API documented.
const passwordSpecials = "@$!%*?&"

func validateRegistration(email, password, firstName, lastName string) *ValidationError {
	var fields []FieldError

	if len(email) < 5 || len(email) > 255 {
		fields = append(fields, FieldError{Field: "email", Message: "email must be between 5 and 255 characters"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}

	if msg := checkPasswordStrength(password); msg != "" {
		fields = append(fields, FieldError{Field: "password", Message: msg})
	}

	if len(strings.TrimSpace(firstName)) > 50 {
		fields = append(fields, FieldError{Field: "firstName", Message: "first name must be at most 50 characters"})
	}
	if len(strings.TrimSpace(lastName)) > 50 {
		fields = append(fields, FieldError{Field: "lastName", Message: "last name must be at most 50 characters"})
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func checkPasswordStrength(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return "password must contain at least one lowercase letter, one uppercase letter, one digit and one special character (@$!%*?&)"
	}
	return ""
}
