package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/flight-auth/internal/auth"
	"github.com/spec-kit/flight-auth/internal/config"
	"github.com/spec-kit/flight-auth/internal/domain"
	"github.com/spec-kit/flight-auth/internal/events"
	"github.com/spec-kit/flight-auth/internal/repository"
	apperrors "github.com/spec-kit/flight-auth/pkg/util/errorutil"
)

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"

// Fixed client-facing messages. Credential failures share one message so
// responses never reveal which check failed.
const (
	msgBadCredentials   = "incorrect username or password"
	msgInvalidAccess    = "could not validate credentials"
	msgInvalidRefresh   = "invalid refresh token"
	msgTooManyAttempts  = "too many failed login attempts, try again later"
	msgPrincipalMissing = "principal"
)

// TokenPair is returned by the login flows.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessToken is returned by the refresh flow.
type AccessToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// NewAdminInput describes an administrator to create.
type NewAdminInput struct {
	Username     string
	Email        string
	FullName     string
	Phone        string
	Password     string
	IsSuperadmin bool
}

// AuthService coordinates registration, login, refresh and principal resolution.
type AuthService struct {
	users      repository.UserRepository
	admins     repository.AdminRepository
	tokens     *auth.TokenManager
	throttle   auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	dummyHash  string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	AdminRepo  repository.AdminRepository
	Tokens     *auth.TokenManager
	Throttle   auth.LoginThrottle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	if deps.UserRepo == nil || deps.AdminRepo == nil {
		return nil, errors.New("auth service requires user and admin repositories")
	}
	tokens := deps.Tokens
	if tokens == nil {
		var err error
		if tokens, err = auth.NewTokenManager(cfg); err != nil {
			return nil, err
		}
	}
	throttle := deps.Throttle
	if throttle == nil {
		throttle = auth.NewNoopThrottle()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Unknown principals are verified against this hash so a missing account
	// costs the same bcrypt work as a wrong password.
	dummyHash, err := auth.HashPassword("flight-auth-placeholder", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare placeholder hash: %w", err)
	}

	logger.Info("token manager ready",
		zap.String("algorithm", tokens.Algorithm()),
		zap.Duration("access_ttl", tokens.AccessTTL()),
		zap.Duration("refresh_ttl", tokens.RefreshTTL()))

	return &AuthService{
		users:      deps.UserRepo,
		admins:     deps.AdminRepo,
		tokens:     tokens,
		throttle:   throttle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummyHash,
	}, nil
}

// Signup creates a new active end-user. No token is issued.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperrors.NewValidationError("password is required", map[string]any{"field": "password"})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup user: %w", err))
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create user: %w", err))
	}

	s.publish(ctx, events.EventUserSignedUp, events.Actor{Kind: domain.PrincipalUser, Key: email}, nil)
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// LoginUser authenticates an end-user by email.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*TokenPair, error) {
	return s.login(ctx, domain.UserSubject(normalizeEmail(email)), password)
}

// LoginAdmin authenticates an administrator by username.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*TokenPair, error) {
	return s.login(ctx, domain.AdminSubject(strings.TrimSpace(username)), password)
}

func (s *AuthService) login(ctx context.Context, subject domain.Subject, password string) (*TokenPair, error) {
	if subject.Key == "" || password == "" {
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}
	actor := events.Actor{Kind: subject.Kind, Key: subject.Key}
	throttleKey := auth.ThrottleKey(string(subject.Kind), subject.Key)

	// The attempt is reserved before the password is checked, so concurrent
	// guesses cannot all slip past the limit.
	allowed, err := s.throttle.Reserve(ctx, throttleKey)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	} else if !allowed {
		s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: "throttled"})
		return nil, apperrors.NewTooManyRequests(msgTooManyAttempts)
	}

	principal, err := s.lookup(ctx, subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup %s: %w", subject.Kind, err))
	}

	reason := ""
	switch {
	case err != nil:
		auth.VerifyPassword(s.dummyHash, password)
		reason = "unknown_principal"
	case !auth.VerifyPassword(principal.PasswordHash(), password):
		reason = "bad_password"
	case principal.User != nil && !principal.User.Active:
		reason = "inactive"
	}
	if reason != "" {
		s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: reason})
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}

	if err := s.throttle.Reset(ctx, throttleKey); err != nil {
		s.logger.Warn("reset login attempts", zap.Error(err))
	}
	actor.Key = principal.Key()

	role := domain.RoleUser
	if principal.Admin != nil {
		role = principal.Admin.Role()
	}
	pair, err := s.issuePair(subject, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventLoginSucceeded, actor, events.LoginSucceededPayload{Role: role})
	return pair, nil
}

// Authenticate resolves the caller behind an access token. Invalid, subject-less
// and expired tokens are Forbidden; a principal that no longer exists is NotFound.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.AuthenticatedPrincipal, error) {
	claims, err := s.tokens.DecodeAccess(accessToken)
	if err != nil {
		s.logger.Debug("access token rejected", zap.Error(err))
		return nil, apperrors.NewForbidden(msgInvalidAccess)
	}
	if claims.Subject == "" {
		s.logger.Debug("access token rejected", zap.String("reason", "missing subject"))
		return nil, apperrors.NewForbidden(msgInvalidAccess)
	}
	if claims.Expired(s.tokens.Now()) {
		s.logger.Debug("access token rejected", zap.Error(auth.ErrTokenExpired))
		return nil, apperrors.NewForbidden(msgInvalidAccess)
	}

	subject := claims.Principal()
	principal, err := s.lookup(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgPrincipalMissing, nil)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup %s: %w", subject.Kind, err))
	}

	return &auth.AuthenticatedPrincipal{
		Subject:   subject,
		Role:      auth.ResolveRole(subject, principal, claims.Role),
		Principal: principal,
		ExpiresAt: claims.Expiry(),
	}, nil
}

// Refresh mints a new access token from a valid refresh token. The role is
// recomputed from the store, so privilege changes since login take effect.
// The refresh token itself is neither rotated nor invalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	claims, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", zap.Error(err))
		return nil, apperrors.NewUnauthorized(msgInvalidRefresh)
	}
	if claims.Subject == "" || claims.Expired(s.tokens.Now()) {
		s.logger.Debug("refresh token rejected", zap.Error(auth.ErrTokenExpired))
		return nil, apperrors.NewUnauthorized(msgInvalidRefresh)
	}

	subject := claims.Principal()
	principal, err := s.lookup(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgInvalidRefresh)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup %s: %w", subject.Kind, err))
	}
	if principal.User != nil && !principal.User.Active {
		return nil, apperrors.NewUnauthorized(msgInvalidRefresh)
	}

	role := auth.ResolveRole(subject, principal, "")
	token, exp, err := s.tokens.IssueAccess(subject, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventTokenRefreshed, events.Actor{Kind: subject.Kind, Key: subject.Key}, events.TokenRefreshedPayload{Role: role})
	return &AccessToken{AccessToken: token, TokenType: TokenTypeBearer, ExpiresAt: exp}, nil
}

// CreateAdmin adds an administrator. Only superadmins may call it.
func (s *AuthService) CreateAdmin(ctx context.Context, actor *auth.AuthenticatedPrincipal, input NewAdminInput) (*domain.Admin, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}

	admin := &domain.Admin{
		Username:     strings.TrimSpace(input.Username),
		Email:        normalizeEmail(input.Email),
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		IsSuperadmin: input.IsSuperadmin,
	}
	if err := validateAdmin(admin, input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = hash

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("admin username, email or phone already registered", nil)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create admin: %w", err))
	}

	s.publish(ctx, events.EventAdminCreated, actorOf(actor), events.AdminCreatedPayload{
		Username:     admin.Username,
		IsSuperadmin: admin.IsSuperadmin,
	})
	return admin, nil
}

// SetAdminPrivilege grants or revokes superadmin. Only superadmins may call
// it, and never on themselves. Outstanding access tokens keep their embedded
// role until they expire; the next refresh picks up the change.
func (s *AuthService) SetAdminPrivilege(ctx context.Context, actor *auth.AuthenticatedPrincipal, username string, superadmin bool) (*domain.Admin, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if actor.Subject.Kind == domain.PrincipalAdmin && actor.Subject.Key == username {
		return nil, apperrors.NewForbidden("cannot change own privilege")
	}

	if err := s.admins.SetSuperadmin(ctx, username, superadmin); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("admin", map[string]any{"username": username})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("update admin privilege: %w", err))
	}
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("reload admin: %w", err))
	}

	s.publish(ctx, events.EventAdminPrivilegeChanged, actorOf(actor), events.AdminPrivilegeChangedPayload{
		Username:     username,
		IsSuperadmin: superadmin,
	})
	return admin, nil
}

// EnsureSuperadmin creates the bootstrap superadmin from configuration when
// it does not exist yet. It reports whether an account was created.
func (s *AuthService) EnsureSuperadmin(ctx context.Context, cfg config.AuthConfig) (bool, error) {
	username := strings.TrimSpace(cfg.SeedAdminUsername)
	if username == "" {
		return false, nil
	}
	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("lookup seed admin: %w", err)
	}

	email := cfg.SeedAdminEmail
	if email == "" {
		email = username + "@localhost"
	}
	admin := &domain.Admin{
		Username:     username,
		Email:        normalizeEmail(email),
		FullName:     strings.TrimSpace(cfg.SeedAdminFullName),
		Phone:        strings.TrimSpace(cfg.SeedAdminPhone),
		IsSuperadmin: true,
	}
	if err := validateAdmin(admin, cfg.SeedAdminPassword); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	hash, err := s.hashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	admin.PasswordHash = hash

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create seed admin: %w", err)
	}
	s.logger.Info("bootstrap superadmin created", zap.String("username", username))
	return true, nil
}

func (s *AuthService) lookup(ctx context.Context, subject domain.Subject) (domain.Principal, error) {
	switch subject.Kind {
	case domain.PrincipalUser:
		user, err := s.users.GetByEmail(ctx, subject.Key)
		if err != nil {
			return domain.Principal{}, err
		}
		return domain.UserPrincipal(user), nil
	case domain.PrincipalAdmin:
		admin, err := s.admins.GetByUsername(ctx, subject.Key)
		if err != nil {
			return domain.Principal{}, err
		}
		return domain.AdminPrincipal(admin), nil
	default:
		return domain.Principal{}, repository.ErrNotFound
	}
}

func (s *AuthService) issuePair(subject domain.Subject, role domain.Role) (*TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(subject, role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.NewValidationError("password must be at most 72 bytes", map[string]any{"field": "password"})
		}
		return "", apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	return hash, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, actor, payload)); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func requireSuperadmin(actor *auth.AuthenticatedPrincipal) error {
	if actor == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	return auth.CheckSuperadmin(actor.Role)
}

func actorOf(p *auth.AuthenticatedPrincipal) events.Actor {
	return events.Actor{Kind: p.Subject.Kind, Key: p.Subject.Key}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return apperrors.NewValidationError("a valid email is required", map[string]any{"field": "email"})
	}
	return nil
}

func validateAdmin(admin *domain.Admin, password string) error {
	switch {
	case admin.Username == "":
		return apperrors.NewValidationError("username is required", map[string]any{"field": "username"})
	case strings.Contains(admin.Username, "@"):
		return apperrors.NewValidationError("username must not contain '@'", map[string]any{"field": "username"})
	case admin.FullName == "":
		return apperrors.NewValidationError("full_name is required", map[string]any{"field": "full_name"})
	case password == "":
		return apperrors.NewValidationError("password is required", map[string]any{"field": "password"})
	}
	return validateEmail(admin.Email)
}
