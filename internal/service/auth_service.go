package service

import (
	"context"
	"errors"

	"murmur/internal/auth"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"
	"murmur/models"
)

const msgInvalidCredentials = "Invalid username or password"

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Issuer mints session tokens.
type Issuer interface {
	Issue(userID string) (string, error)
}

type AuthService struct {
	users  repository.UserRepository
	hasher Hasher
	tokens Issuer
}

type SignupInput struct {
	FullName string `json:"fullName" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated user and the token proving it.
type Session struct {
	User  *models.User
	Token string
}

func NewAuthService(users repository.UserRepository, hasher Hasher, tokens Issuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Signup validates the input, creates the account and issues a session for
// it. No token exists until the user has been written.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (session *Session, err error) {
	defer func() {
		observability.AuthEvents.WithLabelValues("signup", observability.OutcomeOf(err)).Inc()
	}()

	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError(msgUsernameTaken)
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError(msgEmailTaken)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FullName: in.FullName,
		Username: in.Username,
		Email:    in.Email,
		Password: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateError(ctx, s.users, "", in.Username)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Login checks the credentials. Unknown usernames and wrong passwords fail
// identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (session *Session, err error) {
	defer func() {
		observability.AuthEvents.WithLabelValues("login", observability.OutcomeOf(err)).Inc()
	}()

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	digest := ""
	if user != nil {
		digest = user.Password
	}
	if !s.hasher.Verify(in.Password, digest) {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Me reloads the session user from the store.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	return user, nil
}

var _ Hasher = (*auth.PasswordHasher)(nil)
var _ Issuer = (*auth.TokenIssuer)(nil)
