package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
)

// Storage keeps mappings, users and the about page in process memory.
type Storage struct {
	urls       map[int64]*model.URL
	byCode     map[string]int64
	byOriginal map[string]int64
	users      map[string]model.User
	usernames  map[string]string
	about      *model.About
	nextID     int64
	mutex      sync.RWMutex
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		urls:       make(map[int64]*model.URL),
		byCode:     make(map[string]int64),
		byOriginal: make(map[string]int64),
		users:      make(map[string]model.User),
		usernames:  make(map[string]string),
	}
}

// CreateURL checks both unique keys and inserts under one write lock.
// A zero u.ID is assigned the next sequence value; a preset ID is kept.
func (s *Storage) CreateURL(_ context.Context, u model.URL) (model.URL, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.byOriginal[u.OriginalURL]; ok {
		return model.URL{}, storage.ErrURLExists
	}
	if _, ok := s.byCode[u.ShortCode]; ok {
		return model.URL{}, storage.ErrCodeTaken
	}

	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}

	stored := copyURL(u)
	s.urls[u.ID] = &stored
	s.byCode[u.ShortCode] = u.ID
	s.byOriginal[u.OriginalURL] = u.ID

	return copyURL(stored), nil
}

func (s *Storage) GetURLByID(_ context.Context, id int64) (model.URLWithOwner, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.urls[id]
	if !ok {
		return model.URLWithOwner{}, fmt.Errorf("url %d: %w", id, storage.ErrNotFound)
	}

	return s.withOwner(u), nil
}

func (s *Storage) GetURLByCode(_ context.Context, code string) (model.URL, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return model.URL{}, fmt.Errorf("code %q: %w", code, storage.ErrNotFound)
	}

	return copyURL(*s.urls[id]), nil
}

func (s *Storage) ExistsOriginalURL(_ context.Context, originalURL string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, ok := s.byOriginal[originalURL]
	return ok, nil
}

func (s *Storage) ExistsCode(_ context.Context, code string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, ok := s.byCode[code]
	return ok, nil
}

// ListURLs returns all mappings ordered by creation time descending, ties by ID descending.
func (s *Storage) ListURLs(_ context.Context) ([]model.URLWithOwner, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.URLWithOwner, 0, len(s.urls))
	for _, u := range s.urls {
		result = append(result, s.withOwner(u))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (s *Storage) AddClicks(_ context.Context, code string, n int64, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil
	}

	u := s.urls[id]
	u.ClickCount += n
	if u.LastAccessedAt == nil || at.After(*u.LastAccessedAt) {
		accessed := at
		u.LastAccessedAt = &accessed
	}

	return nil
}

func (s *Storage) DeleteURL(_ context.Context, id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	u, ok := s.urls[id]
	if !ok {
		return fmt.Errorf("url %d: %w", id, storage.ErrNotFound)
	}

	delete(s.byCode, u.ShortCode)
	delete(s.byOriginal, u.OriginalURL)
	delete(s.urls, id)

	return nil
}

func (s *Storage) CreateUser(_ context.Context, u model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.usernames[u.Username]; ok {
		return storage.ErrUserExists
	}
	if _, ok := s.users[u.ID]; ok {
		return storage.ErrUserExists
	}

	s.users[u.ID] = u
	s.usernames[u.Username] = u.ID

	return nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}

	return s.users[id], nil
}

func (s *Storage) GetUserByID(_ context.Context, id string) (model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}

	return u, nil
}

func (s *Storage) GetAbout(_ context.Context) (model.About, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.about == nil {
		return model.About{}, storage.ErrNotFound
	}

	a := *s.about
	if u, ok := s.users[a.ModifiedByID]; ok {
		a.ModifiedBy = u.Username
	}

	return a, nil
}

func (s *Storage) SaveAbout(_ context.Context, a model.About) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.about = &a
	return nil
}

// Ping always succeeds for memory storage.
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) Close() {}

// withOwner must be called with the lock held.
func (s *Storage) withOwner(u *model.URL) model.URLWithOwner {
	owner := s.users[u.CreatedByID]
	return model.URLWithOwner{
		URL:            copyURL(*u),
		OwnerUsername:  owner.Username,
		OwnerFirstName: owner.FirstName,
		OwnerLastName:  owner.LastName,
	}
}

func copyURL(u model.URL) model.URL {
	if u.LastAccessedAt != nil {
		t := *u.LastAccessedAt
		u.LastAccessedAt = &t
	}
	return u
}
