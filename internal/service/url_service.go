package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/rs/zerolog/log"
)

// maxCodeAttempts caps short code regeneration on collision.
const maxCodeAttempts = 10

var (
	ErrInvalidURL         = errors.New("invalid URL")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free short code")
	ErrUnauthenticated    = errors.New("authentication required")
)

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() string
}

// URLService provides business logic for creating, resolving and deleting short URLs.
type URLService struct {
	storage   storage.URLStorage
	generator CodeGenerator
	baseURL   string
	now       func() time.Time
}

// NewURLService constructs a URLService with the given storage, code generator and base URL.
func NewURLService(storage storage.URLStorage, generator CodeGenerator, baseURL string) *URLService {
	return &URLService{
		storage:   storage,
		generator: generator,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateShortURL maps originalURL to a fresh short code owned by principal.
func (s *URLService) CreateShortURL(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error) {
	const op = "service.CreateShortURL"

	if principal.ID == "" {
		return model.URLView{}, errx.E(op, errx.Unauthorized, ErrUnauthenticated)
	}

	originalURL = strings.TrimSpace(originalURL)
	if err := validateOriginalURL(originalURL); err != nil {
		return model.URLView{}, errx.E(op, errx.Invalid, err)
	}

	exists, err := s.storage.ExistsOriginalURL(ctx, originalURL)
	if err != nil {
		return model.URLView{}, errx.E(op, errx.Internal, err)
	}
	if exists {
		return model.URLView{}, errx.E(op, errx.Conflict, storage.ErrURLExists)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.generator.Generate()

		taken, err := s.storage.ExistsCode(ctx, code)
		if err != nil {
			return model.URLView{}, errx.E(op, errx.Internal, err)
		}
		if taken {
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("Short code collision, regenerating")
			continue
		}

		created, err := s.storage.CreateURL(ctx, model.URL{
			OriginalURL: originalURL,
			ShortCode:   code,
			CreatedByID: principal.ID,
			CreatedAt:   s.now(),
		})
		switch {
		case errors.Is(err, storage.ErrCodeTaken):
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("Short code taken concurrently, regenerating")
			continue
		case errors.Is(err, storage.ErrURLExists):
			return model.URLView{}, errx.E(op, errx.Conflict, storage.ErrURLExists)
		case err != nil:
			return model.URLView{}, errx.E(op, errx.Internal, err)
		}

		log.Info().
			Int64("id", created.ID).
			Str("code", created.ShortCode).
			Str("userID", principal.ID).
			Msg("Short URL created")

		return s.view(created, principal.Username), nil
	}

	log.Error().Int("attempts", maxCodeAttempts).Msg("Short code space exhausted")
	return model.URLView{}, errx.E(op, errx.Internal, ErrCodeSpaceExhausted)
}

// ListAll returns every mapping, newest first.
func (s *URLService) ListAll(ctx context.Context) ([]model.URLView, error) {
	urls, err := s.storage.ListURLs(ctx)
	if err != nil {
		return nil, errx.E("service.ListAll", errx.Internal, err)
	}

	result := make([]model.URLView, len(urls))
	for i, u := range urls {
		result[i] = s.view(u.URL, u.OwnerUsername)
	}

	return result, nil
}

// GetDetails returns the mapping with its owner's full name.
func (s *URLService) GetDetails(ctx context.Context, id int64) (model.URLDetails, error) {
	const op = "service.GetDetails"

	u, err := s.storage.GetURLByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.URLDetails{}, errx.E(op, errx.NotFound, storage.ErrNotFound)
		}
		return model.URLDetails{}, errx.E(op, errx.Internal, err)
	}

	owner := model.User{FirstName: u.OwnerFirstName, LastName: u.OwnerLastName}
	return model.URLDetails{
		URLView:           s.view(u.URL, u.OwnerUsername),
		CreatedByFullName: owner.FullName(),
	}, nil
}

// ResolveOriginalURL returns the original URL for code.
func (s *URLService) ResolveOriginalURL(ctx context.Context, code string) (string, error) {
	const op = "service.ResolveOriginalURL"

	u, err := s.storage.GetURLByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", errx.E(op, errx.NotFound, storage.ErrNotFound)
		}
		return "", errx.E(op, errx.Internal, err)
	}

	return u.OriginalURL, nil
}

// RecordClick counts one visit to code now. Unknown codes are ignored.
func (s *URLService) RecordClick(ctx context.Context, code string) error {
	return s.RecordClicks(ctx, code, 1, s.now())
}

// RecordClicks counts n visits to code, the last of which happened at at.
func (s *URLService) RecordClicks(ctx context.Context, code string, n int64, at time.Time) error {
	if n <= 0 {
		return nil
	}
	if err := s.storage.AddClicks(ctx, code, n, at); err != nil {
		return errx.E("service.RecordClicks", errx.Internal, err)
	}
	return nil
}

// Delete removes the mapping when principal owns it or is an admin.
// A missing mapping and a forbidden one both report false.
func (s *URLService) Delete(ctx context.Context, id int64, principal model.Principal) (bool, error) {
	const op = "service.Delete"

	u, err := s.storage.GetURLByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, errx.E(op, errx.Internal, err)
	}

	if !principal.CanManage(u.CreatedByID) {
		log.Debug().
			Int64("id", id).
			Str("userID", principal.ID).
			Msg("Delete refused, caller is neither owner nor admin")
		return false, nil
	}

	if err := s.storage.DeleteURL(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, errx.E(op, errx.Internal, err)
	}

	log.Info().Int64("id", id).Str("userID", principal.ID).Msg("Short URL deleted")
	return true, nil
}

// ShortURL joins the base URL and code.
func (s *URLService) ShortURL(code string) string {
	shortURL, err := url.JoinPath(s.baseURL, code)
	if err != nil {
		return s.baseURL + "/" + code
	}
	return shortURL
}

func (s *URLService) view(u model.URL, owner string) model.URLView {
	return model.URLView{
		ID:               u.ID,
		OriginalURL:      u.OriginalURL,
		ShortCode:        u.ShortCode,
		ShortURL:         s.ShortURL(u.ShortCode),
		CreatedBy:        owner,
		CreatedDate:      u.CreatedAt,
		ClickCount:       u.ClickCount,
		LastAccessedDate: u.LastAccessedAt,
	}
}

func validateOriginalURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: originalUrl is required", ErrInvalidURL)
	}
	if len(raw) > model.MaxOriginalURLLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, model.MaxOriginalURLLength)
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return nil
}
