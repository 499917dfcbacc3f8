// services/auth_service.go - Registration, login and token verification
package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/store"
)

const minPasswordLength = 6

type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// Identity is the authenticated user as seen by the rest of the system.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type Session struct {
	Identity  Identity  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var errInvalidToken = apperr.New(apperr.CodeUnauthenticated, "invalid or expired token")

// AuthService issues HS256 tokens. Logout revokes a token by its jti in the
// store, so every instance sharing the store rejects it until it expires.
type AuthService struct {
	base
	cfg AuthConfig
}

func NewAuthService(b base, cfg AuthConfig) *AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 72 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{base: b, cfg: cfg}
}

// Register creates the account and its empty profile together.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Newf(apperr.CodeWeakPassword, "password must be at least %d characters", minPasswordLength)
	}
	if s.degraded() {
		return nil, apperr.ErrStoreUnavailable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "hash password")
	}

	account := &models.Account{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	err = s.atomic(ctx, func(tx store.Store) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		return tx.Profiles().Create(ctx, &models.Profile{
			ID:       account.ID,
			Email:    email,
			FullName: strings.TrimSpace(in.FullName),
			Skills:   []models.Skill{},
		})
	})
	if err != nil {
		return nil, s.fail("register", err)
	}

	s.publish(ctx, events.Profiles)
	s.log.Info("account registered", zap.String("user_id", account.ID))
	return s.issue(Identity{UID: account.ID, Email: email})
}

// Login checks the password. An unknown email and a wrong password are
// reported the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if s.degraded() {
		return nil, apperr.ErrStoreUnavailable
	}

	wrong := apperr.New(apperr.CodeWrongPassword, "invalid email or password")
	account, err := s.store.Accounts().GetByEmail(ctx, email)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return nil, wrong
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, wrong
	}

	if err := s.store.Accounts().TouchLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		s.log.Warn("last login not recorded", zap.String("user_id", account.ID), zap.Error(err))
	}
	return s.issue(Identity{UID: account.ID, Email: account.Email})
}

// Logout revokes token. Revoking an invalid token is a no-op, and so is
// logging out without a store.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil || s.degraded() {
		return nil
	}

	now := time.Now().UTC()
	revocations := s.store.Revocations()
	err = revocations.Revoke(ctx, &models.RevokedToken{
		ID:        c.ID,
		UserID:    c.Subject,
		ExpiresAt: c.ExpiresAt.Time,
		RevokedAt: now,
	})
	if err != nil {
		return s.fail("logout", err, zap.String("user_id", c.Subject))
	}

	if n, err := revocations.PurgeExpired(ctx, now); err != nil {
		s.log.Warn("expired revocations not purged", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("expired revocations purged", zap.Int("count", n))
	}
	s.log.Info("session revoked", zap.String("user_id", c.Subject))
	return nil
}

// Verify returns the identity a valid, unrevoked token was issued to.
func (s *AuthService) Verify(ctx context.Context, token string) (Identity, error) {
	c, err := s.parse(token)
	if err != nil {
		return Identity{}, err
	}

	if !s.degraded() {
		revoked, err := s.store.Revocations().IsRevoked(ctx, c.ID)
		if err != nil {
			return Identity{}, s.fail("verify token", err, zap.String("user_id", c.Subject))
		}
		if revoked {
			return Identity{}, errInvalidToken
		}
	}
	return Identity{UID: c.Subject, Email: c.Email}, nil
}

func (s *AuthService) issue(id Identity) (*Session, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "sign token")
	}
	return &Session{Identity: id, Token: signed, ExpiresAt: exp}, nil
}

func (s *AuthService) parse(token string) (*tokenClaims, error) {
	var c tokenClaims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errInvalidToken
	}
	if c.Subject == "" || c.ID == "" {
		return nil, errInvalidToken
	}
	return &c, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", apperr.New(apperr.CodeInvalidEmail, "invalid email address")
	}
	return email, nil
}
