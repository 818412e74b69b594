package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	cfotel "github.com/Strob0t/crm/internal/adapter/otel"
	"github.com/Strob0t/crm/internal/config"
	"github.com/Strob0t/crm/internal/domain"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/port/database"
)

// errInvalidCredentials is returned for both unknown emails and wrong passwords.
var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

// Claims is the bearer token payload: subject is the user id.
type Claims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login, and token signing and verification.
type AuthService struct {
	store   database.UserStore
	cfg     config.Auth
	secret  []byte
	metrics *cfotel.Metrics
	now     func() time.Time
}

// NewAuthService creates a new authentication service. It fails when no
// signing secret is configured.
func NewAuthService(store database.UserStore, cfg config.Auth) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}, nil
}

// SetMetrics attaches metric instruments. Nil disables counting.
func (s *AuthService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// Register creates a USER account and returns it with a signed token.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (_ *user.AuthResponse, err error) {
	ctx, span := cfotel.StartAuthSpan(ctx, "register")
	defer func() { cfotel.EndSpan(span, err) }()

	req.Role = user.RoleUser
	u, err := s.createUser(ctx, req)
	if err != nil {
		s.metrics.Registration(ctx, outcome(err))
		return nil, err
	}

	token, err := s.SignToken(u)
	if err != nil {
		return nil, err
	}
	s.metrics.Registration(ctx, "ok")
	slog.InfoContext(ctx, "user registered", "user_id", u.ID)
	return &user.AuthResponse{User: u, Token: token}, nil
}

// CreateUser creates an account with the role carried in req (admin tooling).
func (s *AuthService) CreateUser(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	return s.createUser(ctx, req)
}

func (s *AuthService) createUser(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, err := s.store.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// A concurrent registration that passed the check above surfaces here as ErrConflict.
	u, err := s.store.CreateUser(ctx, &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns the user with a fresh token. Unknown
// email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (_ *user.AuthResponse, err error) {
	ctx, span := cfotel.StartAuthSpan(ctx, "login")
	defer func() { cfotel.EndSpan(span, err) }()

	if err := req.Validate(); err != nil {
		s.metrics.Login(ctx, outcome(err))
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.Login(ctx, "invalid")
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.Login(ctx, "invalid")
		return nil, errInvalidCredentials
	}

	token, err := s.SignToken(u)
	if err != nil {
		return nil, err
	}
	s.metrics.Login(ctx, "ok")
	return &user.AuthResponse{User: u, Token: token}, nil
}

// SignToken issues an HS256 token for u that expires after the configured TTL.
func (s *AuthService) SignToken(u *user.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenExpiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm, issuer and expiry and returns
// the identity the token was issued for. Every failure wraps domain.ErrUnauthorized.
func (s *AuthService) ValidateToken(tokenStr string) (*user.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid token subject: %w", domain.ErrUnauthorized)
	}
	return &user.Identity{UserID: id, Role: claims.Role}, nil
}

// CurrentUser loads the stored profile of the authenticated caller. A token
// whose user no longer exists is unauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, id *user.Identity) (*user.User, error) {
	if id == nil {
		return nil, fmt.Errorf("no identity: %w", domain.ErrUnauthorized)
	}
	u, err := s.store.GetUser(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %d no longer exists: %w", id.UserID, domain.ErrUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// ResetPassword replaces the password of the account with the given email.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if err := user.ValidatePassword(password); err != nil {
		return err
	}
	u, err := s.store.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdateUserPassword(ctx, u.ID, string(hash))
}

// SetRole changes the role of the account with the given email.
func (s *AuthService) SetRole(ctx context.Context, email string, role user.Role) error {
	if !user.ValidRoles[role] {
		return domain.Validationf("invalid role: must be USER or ADMIN")
	}
	u, err := s.store.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return s.store.UpdateUserRole(ctx, u.ID, role)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
