package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/rs/zerolog/log"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared against on the unknown-user path so that a miss
// costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash dummy password")
	}
	return hash
})

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(user model.User) (string, time.Time, error)
}

// AuthService verifies credentials and issues bearer tokens.
type AuthService struct {
	users         storage.UserStorage
	tokens        TokenIssuer
	checkPassword func(hash, password string) error
}

func NewAuthService(users storage.UserStorage, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		checkPassword: auth.CheckPassword,
	}
}

// Login checks username and password and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	const op = "service.Login"

	if username == "" || password == "" {
		return model.LoginResponse{}, errx.E(op, errx.Unauthorized, ErrInvalidCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = s.checkPassword(dummyHash(), password)
			log.Info().Str("username", username).Msg("Login failed, unknown user")
			return model.LoginResponse{}, errx.E(op, errx.Unauthorized, ErrInvalidCredentials)
		}
		return model.LoginResponse{}, errx.E(op, errx.Internal, err)
	}

	if err := s.checkPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Info().Str("username", username).Msg("Login failed, wrong password")
			return model.LoginResponse{}, errx.E(op, errx.Unauthorized, ErrInvalidCredentials)
		}
		return model.LoginResponse{}, errx.E(op, errx.Internal, err)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return model.LoginResponse{}, errx.E(op, errx.Internal, err)
	}

	log.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")

	return model.LoginResponse{
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}
