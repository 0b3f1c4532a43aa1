// Package auth covers account creation, login and token issuance. Social
// sign-in token verification (Google, Apple) happens upstream; this service
// only sees a verified email plus a provider tag.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/config"
	"github.com/subletme/sublet-api/internal/db"
	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/repository"
)

// Claims is the token payload: the user id plus registered claims.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	appCtx *app.AppContext
	secret []byte
	ttl    time.Duration
}

func NewService(appCtx *app.AppContext, cfg *config.Config) *Service {
	return &Service{
		appCtx: appCtx,
		secret: []byte(cfg.JWT.Secret),
		ttl:    time.Duration(cfg.JWT.TTLHours) * time.Hour,
	}
}

// Register creates an email/password account and returns the user plus a
// signed token. A taken email fails with VALIDATION.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*db.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", svcErr.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return nil, "", svcErr.Validation("password must be at least 8 characters")
	}

	users := repository.NewUserRepository(s.appCtx.DB)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, "", svcErr.Validation("email already registered")
	} else if !repository.IsNotFound(err) {
		return nil, "", svcErr.Infra(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", svcErr.Infra(err)
	}

	user := &db.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Provider:     "email",
		Active:       true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, "", svcErr.Infra(err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", svcErr.Infra(err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user plus a signed token.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", svcErr.Validation("email and password required")
	}

	user, err := repository.NewUserRepository(s.appCtx.DB).GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", svcErr.Validation("invalid credentials")
		}
		return nil, "", svcErr.Infra(err)
	}
	if !user.Active {
		return nil, "", svcErr.Validation("account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", svcErr.Validation("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", svcErr.Infra(err)
	}
	return user, token, nil
}

// FindOrCreateUser upserts an account for a social sign-in: the email has
// already been verified against the provider upstream. Existing accounts are
// reused regardless of provider.
func (s *Service) FindOrCreateUser(ctx context.Context, email, firstName, lastName, provider string) (*db.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", svcErr.Validation("a valid email is required")
	}

	users := repository.NewUserRepository(s.appCtx.DB)

	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// existing account, nothing to create
	case repository.IsNotFound(err):
		user = &db.User{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Provider:  provider,
			Active:    true,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, "", svcErr.Infra(err)
		}
	default:
		return nil, "", svcErr.Infra(err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", svcErr.Infra(err)
	}
	return user, token, nil
}

// RegisterDevice stores a push token for the authenticated user.
func (s *Service) RegisterDevice(ctx context.Context, userID uint64, token, metadata string) error {
	if token == "" {
		return svcErr.Validation("device token required")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	if _, err := users.GetByID(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		}
		return svcErr.Infra(err)
	}

	if err := users.UpsertDevice(ctx, userID, token, metadata); err != nil {
		return svcErr.Infra(err)
	}
	return nil
}

// ParseToken validates a signed token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, svcErr.Validation("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, svcErr.Validation("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, svcErr.Validation("invalid token")
	}
	return claims, nil
}

// UserIDFromToken is the narrow surface the HTTP middleware consumes.
func (s *Service) UserIDFromToken(tokenString string) (uint64, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *Service) issueToken(user *db.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sublet-api",
			Subject:   "user-auth",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
