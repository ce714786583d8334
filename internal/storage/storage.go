package storage

import (
	"context"
	"errors"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrURLExists is returned when the original URL is already mapped.
	ErrURLExists = errors.New("URL already exists")
	// ErrCodeTaken is returned when the short code collides with an existing mapping.
	ErrCodeTaken = errors.New("short code already taken")
	// ErrUserExists is returned when the username is already registered.
	ErrUserExists = errors.New("user already exists")
)

// URLStorage persists short code mappings.
type URLStorage interface {
	// CreateURL inserts u and returns it with ID set. It fails with
	// ErrURLExists or ErrCodeTaken when a unique constraint is violated.
	CreateURL(ctx context.Context, u model.URL) (model.URL, error)
	GetURLByID(ctx context.Context, id int64) (model.URLWithOwner, error)
	GetURLByCode(ctx context.Context, code string) (model.URL, error)
	ExistsOriginalURL(ctx context.Context, originalURL string) (bool, error)
	ExistsCode(ctx context.Context, code string) (bool, error)
	// ListURLs returns every mapping, newest first.
	ListURLs(ctx context.Context) ([]model.URLWithOwner, error)
	// AddClicks adds n clicks to the mapping and sets its last access time.
	// An unknown code is not an error.
	AddClicks(ctx context.Context, code string, n int64, at time.Time) error
	DeleteURL(ctx context.Context, id int64) error
}

// UserStorage persists accounts.
type UserStorage interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// AboutStorage persists the about page.
type AboutStorage interface {
	// GetAbout returns ErrNotFound until the page is first saved.
	GetAbout(ctx context.Context) (model.About, error)
	SaveAbout(ctx context.Context, a model.About) error
}

// Storage is what a backend provides to the application.
type Storage interface {
	URLStorage
	UserStorage
	AboutStorage
	Ping(ctx context.Context) error
	Close()
}
