package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// CredentialsReader resolves stored credentials for authentication.
type CredentialsReader interface {
	GetCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionStore persists opaque session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSessionByToken(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// AuthService authenticates credentials and manages opaque bearer sessions.
type AuthService struct {
	credentials    CredentialsReader
	sessions       SessionStore
	idGenerator    func() string
	tokenGenerator func() (string, error)
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(credentials CredentialsReader, sessions SessionStore, idGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		idGenerator:    idGenerator,
		tokenGenerator: generateSessionToken,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate verifies the supplied credentials and issues a new session.
// A wrong password and an unknown email are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil || s.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("session store not configured")
	}

	logger := s.loggerWith(ctx, "Authenticate", "email", params.Email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "session issued")
	}()

	credentials, err := s.credentials.GetCredentialsByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}

	if err := VerifyPassword(credentials.PasswordHash, params.Password); err != nil {
		if errors.Is(err, ErrInvalidPasswordHash) || errors.Is(err, ErrIncompatiblePasswordVersion) {
			return AuthenticateResult{}, err
		}
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	if credentials.Disabled {
		return AuthenticateResult{}, ErrAccountDisabled
	}

	token, err := s.tokenGenerator()
	if err != nil {
		return AuthenticateResult{}, err
	}

	now := s.now()
	session, err := s.sessions.CreateSession(ctx, Session{
		ID:        s.idGenerator(),
		UserID:    credentials.User.ID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		return AuthenticateResult{}, err
	}

	return AuthenticateResult{User: credentials.User, Session: session}, nil
}

// ValidateSession resolves a bearer token into a principal, rejecting
// expired and revoked sessions.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("session store not configured")
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// RevokeSession invalidates the session behind a token. Revoking an unknown
// token is not an error.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}
	if err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// CleanupExpiredSessions deletes sessions past their expiry. Intended for
// periodic invocation by the job runner.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	if s == nil || s.sessions == nil {
		return 0, fmt.Errorf("session store not configured")
	}

	logger := s.loggerWith(ctx, "CleanupExpiredSessions")
	removed, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete expired sessions", "error", err)
		return 0, err
	}
	if removed > 0 {
		logger.InfoContext(ctx, "expired sessions removed", "count", removed)
	}
	return removed, nil
}
