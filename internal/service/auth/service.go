// Package auth signs users up and in with email and password and issues
// HS256 session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/metrics"
	"github.com/mamadbah2/herd/internal/repository"
)

const (
	issuer           = "herd"
	sessionAudience  = "herd-session"
	resetAudience    = "herd-password-reset"
	resetTTL         = time.Hour
	minPasswordLen   = 6
	invalidLoginText = "invalid email or password"
)

// Claims are the JWT claims of session and reset tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is what sign-in and sign-up return.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Principal is the identity behind a valid session token.
type Principal struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Event names a change of the current user.
type Event string

const (
	EventSignedUp  Event = "signed_up"
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
)

// Listener observes user changes. The user is the one signing in, up or out.
type Listener func(event Event, user models.User)

// ResetSender delivers password reset tokens to their owner.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, user models.User, token string) error
}

// Service implements the authentication collaborator.
type Service struct {
	users  repository.UserRepository
	sender ResetSender
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners map[int]Listener
	nextID    int
}

// NewService wires the auth service.
func NewService(users repository.UserRepository, sender ResetSender, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     users,
		sender:    sender,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]Listener),
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OnUserChanged registers fn and returns a function that unregisters it.
func (s *Service) OnUserChanged(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify(event Event, user models.User) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(event, user)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	details := map[string]string{}
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		details["email"] = "a valid email is required"
	}
	if len(password) < minPasswordLen {
		details["password"] = fmt.Sprintf("password must have at least %d characters", minPasswordLen)
	}
	if len(password) > 72 {
		details["password"] = "password must have at most 72 bytes"
	}
	if len(details) > 0 {
		return apperr.Validation("invalid credentials", details)
	}
	return nil
}

// withDefaults fills the profile fields older documents may lack.
func withDefaults(user models.User) models.User {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.DisplayName == "" {
		user.DisplayName = strings.SplitN(user.Email, "@", 2)[0]
	}
	if user.Farms == nil {
		user.Farms = []string{}
	}
	return user
}

// SignUp creates a user profile and returns a session for it.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, withDefaults(models.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         models.RoleUser,
		Farms:        []string{},
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}))
	metrics.RecordAuth("signup", err)
	if err != nil {
		return Session{}, err
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	s.notify(EventSignedUp, user)
	return session, nil
}

// SignIn checks the password and returns a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	session, err := s.signIn(ctx, normalizeEmail(email), password)
	metrics.RecordAuth("signin", err)
	return session, err
}

func (s *Service) signIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return Session{}, apperr.Unauthorized(invalidLoginText)
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, apperr.Unauthorized(invalidLoginText)
	}

	user = withDefaults(user)
	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	s.notify(EventSignedIn, user)
	return session, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	principal, err := s.Authenticate(token)
	metrics.RecordAuth("signout", err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	now := s.now()
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
	s.revoked[principal.TokenID] = principal.ExpiresAt
	s.mu.Unlock()

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		user = models.User{ID: principal.UserID, Email: principal.Email, Role: principal.Role}
	}
	s.logger.Info("user signed out", zap.String("user_id", principal.UserID))
	s.notify(EventSignedOut, user)
	return nil
}

// Authenticate validates a session token's signature, expiry and revocation.
func (s *Service) Authenticate(token string) (Principal, error) {
	claims, err := s.parse(token, sessionAudience)
	if err != nil {
		return Principal{}, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return Principal{}, apperr.Unauthorized("session has been signed out")
	}

	return Principal{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RequestPasswordReset issues a one-hour reset token for the account. Unknown
// emails succeed without doing anything.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Debug("password reset for unknown email ignored")
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	jti := uuid.NewString()
	expires := now.Add(resetTTL)
	token, err := s.sign(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.ID,
		Audience:  jwt.ClaimStrings{resetAudience},
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}})
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(jti), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash reset token: %w", err)
	}
	user.ResetTokenHash = string(hash)
	user.ResetExpiresAt = &expires
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	if s.sender != nil {
		if err := s.sender.SendPasswordReset(ctx, user, token); err != nil {
			return fmt.Errorf("deliver password reset: %w", err)
		}
	}
	metrics.RecordAuth("reset_request", nil)
	s.logger.Info("password reset issued", zap.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := s.resetPassword(ctx, token, newPassword)
	metrics.RecordAuth("reset", err)
	return err
}

func (s *Service) resetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.parse(token, resetAudience)
	if err != nil {
		return err
	}
	user, err := s.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Unauthorized("invalid reset token")
	}
	if err != nil {
		return err
	}
	if user.ResetTokenHash == "" || bcrypt.CompareHashAndPassword([]byte(user.ResetTokenHash), []byte(claims.ID)) != nil {
		return apperr.Unauthorized("reset token already used or replaced")
	}
	if err := validateCredentials(user.Email, newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.ResetTokenHash = ""
	user.ResetExpiresAt = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *Service) issue(user models.User) (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	token, err := s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) parse(token, audience string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// LogResetSender logs reset tokens instead of delivering them. It is meant
// for local runs without a mail integration.
type LogResetSender struct {
	Logger *zap.Logger
}

// SendPasswordReset logs the token at debug level.
func (l LogResetSender) SendPasswordReset(_ context.Context, user models.User, token string) error {
	if l.Logger != nil {
		l.Logger.Debug("password reset token", zap.String("email", user.Email), zap.String("token", token))
	}
	return nil
}
