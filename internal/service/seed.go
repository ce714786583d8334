package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SeedAccount is a user created at startup when missing.
type SeedAccount struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Role      model.Role
}

// DefaultSeedAccounts are the admin and regular demo accounts.
var DefaultSeedAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", Email: "admin@urlshortener.com", FirstName: "Admin", LastName: "User", Role: model.RoleAdmin},
	{Username: "user", Password: "user123", Email: "user@urlshortener.com", FirstName: "Regular", LastName: "User", Role: model.RoleUser},
}

// SeedUsers creates each account that does not exist yet. It is safe to run on every start.
func SeedUsers(ctx context.Context, users storage.UserStorage, accounts []SeedAccount) error {
	for _, acc := range accounts {
		_, err := users.GetUserByUsername(ctx, acc.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("lookup %s: %w", acc.Username, err)
		}

		hash, err := auth.HashPassword(acc.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acc.Username, err)
		}

		user := model.User{
			ID:           uuid.NewString(),
			Username:     acc.Username,
			Email:        acc.Email,
			FirstName:    acc.FirstName,
			LastName:     acc.LastName,
			PasswordHash: hash,
			Role:         acc.Role,
		}

		err = users.CreateUser(ctx, user)
		if errors.Is(err, storage.ErrUserExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", acc.Username, err)
		}

		log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("Seeded user")
	}

	return nil
}
