package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
)

var (
	ErrAdminOnly    = errors.New("only administrators can edit this page")
	ErrEmptyContent = errors.New("content is required")
)

type AboutService struct {
	storage storage.AboutStorage
	now     func() time.Time
}

func NewAboutService(storage storage.AboutStorage) *AboutService {
	return &AboutService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the stored page, or the default description if none was saved.
func (s *AboutService) Get(ctx context.Context) (model.About, error) {
	a, err := s.storage.GetAbout(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return model.About{Content: model.DefaultAboutContent}, nil
	}
	if err != nil {
		return model.About{}, errx.E("service.GetAbout", errx.Internal, err)
	}
	return a, nil
}

func (s *AboutService) Update(ctx context.Context, content string, principal model.Principal) (model.About, error) {
	const op = "service.UpdateAbout"

	if !principal.IsAdmin() {
		return model.About{}, errx.E(op, errx.Forbidden, ErrAdminOnly)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return model.About{}, errx.E(op, errx.Invalid, ErrEmptyContent)
	}

	a := model.About{
		Content:      content,
		LastModified: s.now(),
		ModifiedByID: principal.ID,
		ModifiedBy:   principal.Username,
	}
	if err := s.storage.SaveAbout(ctx, a); err != nil {
		return model.About{}, errx.E(op, errx.Internal, err)
	}

	return a, nil
}
