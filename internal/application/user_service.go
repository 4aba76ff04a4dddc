package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// UserRepository is the write-side contract for the account directory.
type UserRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService manages accounts. All operations require an administrator
// except GetUser on one's own account.
type UserService struct {
	repository  UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs the directory service.
func NewUserService(repository UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		repository:  repository,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a new account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, principal Principal, input UserInput) (user User, err error) {
	if s == nil || s.repository == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", principal.UserID, "email", input.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !principal.IsAdmin() {
		return User{}, ErrUnauthorized
	}
	if err := validateUserInput(input, true); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(input.Password, DefaultArgon2idParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user, err = s.repository.CreateUser(ctx, CreateUserParams{
		ID:           s.idGenerator(),
		Email:        normalizeEmail(input.Email),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return User{}, mapCatalogRepoError(err, "email", "ya existe un usuario con ese correo")
	}
	return user, nil
}

// GetUser returns one account. Non-administrators may only read their own.
func (s *UserService) GetUser(ctx context.Context, principal Principal, id string) (User, error) {
	if s == nil || s.repository == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if id != principal.UserID && !principal.IsAdmin() {
		return User{}, ErrUnauthorized
	}
	user, err := s.repository.GetUser(ctx, id)
	if err != nil {
		return User{}, mapCatalogRepoError(err, "", "")
	}
	return user, nil
}

// ListUsers returns all accounts, administrators only.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.repository == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.repository.ListUsers(ctx)
}

// UpdateUser replaces an account's profile. The password only changes when a
// new one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, principal Principal, id string, input UserInput) (user User, err error) {
	if s == nil || s.repository == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", principal.UserID, "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !principal.IsAdmin() {
		return User{}, ErrUnauthorized
	}
	if err := validateUserInput(input, false); err != nil {
		return User{}, err
	}

	params := UpdateUserParams{
		ID:          id,
		Email:       normalizeEmail(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        input.Role,
		UpdatedAt:   s.now(),
	}
	if input.Password != "" {
		hash, err := HashPassword(input.Password, DefaultArgon2idParams)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		params.PasswordHash = &hash
	}

	user, err = s.repository.UpdateUser(ctx, params)
	if err != nil {
		return User{}, mapCatalogRepoError(err, "email", "ya existe un usuario con ese correo")
	}
	return user, nil
}

// DeleteUser removes an account. Administrators cannot remove themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil || s.repository == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted")
	}()

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if id == principal.UserID {
		vErr := &ValidationError{}
		vErr.add("id", "no puedes eliminar tu propia cuenta")
		return vErr
	}
	if err := s.repository.DeleteUser(ctx, id); err != nil {
		return mapCatalogRepoError(err, "", "")
	}
	return nil
}

func validateUserInput(input UserInput, requirePassword bool) error {
	validationErr := &ValidationError{}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		validationErr.add("email", "el correo no es válido")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		validationErr.add("nombre", "el nombre es obligatorio")
	}
	if _, err := ParseRole(string(input.Role)); err != nil {
		validationErr.add("rol", "el rol debe ser STUDENT o ADMIN")
	}
	if requirePassword && len(input.Password) < 8 {
		validationErr.add("password", "la contraseña debe tener al menos 8 caracteres")
	} else if input.Password != "" && len(input.Password) < 8 {
		validationErr.add("password", "la contraseña debe tener al menos 8 caracteres")
	}
	if validationErr.HasErrors() {
		return validationErr
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
