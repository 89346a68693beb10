package application

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// PasswordHasher derives a storable hash from a plain password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users        UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hashPassword, idGenerator: idGenerator, now: now}
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	user := User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		IsAdmin:     normalized.IsAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.users == nil {
		return user, nil
	}

	persisted, err := s.users.CreateUser(ctx, user, hash)
	if err != nil {
		return User{}, mapStoreError(err)
	}
	return persisted, nil
}

// GetUser returns one account visible to any authenticated principal.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if isNotFoundError(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListUsers returns all accounts for any authenticated principal, ordered
// by display name. Members need the directory to invite each other into
// conversations.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}

	out := make([]User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].DisplayName, out[j].DisplayName) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
		IsAdmin:     input.IsAdmin,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}
