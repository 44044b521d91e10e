package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"petalboard/internal/models"
	"petalboard/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AccountStore is what the auth service needs from the account repository.
// Learning: consumer-driven interface - the service declares exactly the
// methods it calls, so tests can swap in an in-memory fake.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	ConsumeResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
}

// TokenVerifier validates a Google ID token and reports its identity claims.
// The real OAuth dance happens at the provider; this service only consumes
// the resulting token as an opaque capability.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*IdentityClaims, error)
}

// IdentityClaims is the subset of provider claims the service uses.
type IdentityClaims struct {
	Email    string
	Name     string
	PhotoURL string
}

// Mailer delivers password reset tokens. Swapped for a fake in tests and
// for a log-only implementation in development.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer logs the reset token instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	log.Printf("📧 Password reset for %s: token %s", email, token)
	return nil
}

// Service implements registration, login, Google token exchange and
// password reset over an AccountStore.
type Service struct {
	accounts AccountStore
	verifier TokenVerifier
	mailer   Mailer

	jwtSecret     []byte
	tokenLifetime time.Duration
	resetLifetime time.Duration
}

type Option func(*Service)

// WithTokenVerifier wires a Google ID token verifier. Without one,
// LoginWithGoogle fails with the generic auth error.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(s *Service) { s.verifier = v }
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

func NewService(accounts AccountStore, jwtSecret string, tokenLifetime, resetLifetime time.Duration, opts ...Option) *Service {
	s := &Service{
		accounts:      accounts,
		mailer:        LogMailer{},
		jwtSecret:     []byte(jwtSecret),
		tokenLifetime: tokenLifetime,
		resetLifetime: resetLifetime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a password account and signs the new user in.
func (s *Service) Register(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return nil, "", newAuthError(CauseInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return nil, "", newAuthError(CauseWeakPassword)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, "", newAuthError(CauseEmailInUse)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        email,
		DisplayName:  displayNameFromEmail(email),
		PasswordHash: string(hash),
		Provider:     "password",
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login checks the password and issues a signed session token. A missing
// account and a wrong password both come back as invalid-credentials so the
// login form cannot be used to probe registered emails.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", newAuthError(CauseInvalidCredentials)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	if account.PasswordHash == "" {
		// Google-only account
		return nil, "", newAuthError(CauseInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, "", newAuthError(CauseInvalidCredentials)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// LoginWithGoogle exchanges a verified provider ID token for a session,
// creating the account on first sign-in.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*models.Account, string, error) {
	if s.verifier == nil {
		return nil, "", &AuthError{Cause: CauseInvalidToken, Err: errors.New("no token verifier configured")}
	}

	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, "", &AuthError{Cause: CauseInvalidToken, Err: err}
	}

	email := strings.TrimSpace(strings.ToLower(claims.Email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		account = &models.Account{
			Email:       email,
			DisplayName: claims.Name,
			PhotoURL:    claims.PhotoURL,
			Provider:    "google",
		}
		if account.DisplayName == "" {
			account.DisplayName = displayNameFromEmail(email)
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, "", fmt.Errorf("failed to create account: %w", err)
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// RequestPasswordReset issues a single-use token and hands it to the mailer.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return newAuthError(CauseUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	reset := &models.PasswordResetToken{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(s.resetLifetime),
	}
	if err := s.accounts.CreateResetToken(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, account.Email, reset.Token); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return newAuthError(CauseWeakPassword)
	}

	reset, err := s.accounts.ConsumeResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return newAuthError(CauseInvalidToken)
	}
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, reset.AccountID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its account.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.Account, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, &AuthError{Cause: CauseInvalidToken, Err: err}
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newAuthError(CauseInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func (s *Service) issueToken(account *models.Account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// validEmail is intentionally loose: the provider we replace only rejects
// obviously malformed addresses.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
