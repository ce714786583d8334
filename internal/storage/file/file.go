package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
)

const (
	opCreate = "create"
	opClick  = "click"
	opDelete = "delete"
	opUser   = "user"
	opAbout  = "about"
)

// record is one line of the JSONL event log.
type record struct {
	Op          string      `json:"op"`
	ID          int64       `json:"id,omitempty"`
	ShortCode   string      `json:"short_code,omitempty"`
	OriginalURL string      `json:"original_url,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	At          *time.Time  `json:"at,omitempty"`
	Clicks      int64       `json:"clicks,omitempty"`
	User        *userRecord `json:"user,omitempty"`
	Content     string      `json:"content,omitempty"`
}

type userRecord struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"password_hash"`
	Role         model.Role `json:"role"`
}

// Storage is memory storage whose mutations are appended to a JSONL file
// and replayed on open.
type Storage struct {
	*memory.Storage
	filePath    string
	fileWriteMu sync.Mutex
}

// NewStorage opens (creating if needed) the log at filePath and replays it.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		Storage:  memory.NewStorage(),
		filePath: filePath,
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

// CreateURL needs the ID assigned by memory before the record can be
// written, so a failed append undoes the insert.
func (s *Storage) CreateURL(ctx context.Context, u model.URL) (model.URL, error) {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	created, err := s.Storage.CreateURL(ctx, u)
	if err != nil {
		return model.URL{}, err
	}

	at := created.CreatedAt
	err = s.appendRecord(record{
		Op:          opCreate,
		ID:          created.ID,
		ShortCode:   created.ShortCode,
		OriginalURL: created.OriginalURL,
		UserID:      created.CreatedByID,
		At:          &at,
	})
	if err != nil {
		if undoErr := s.Storage.DeleteURL(ctx, created.ID); undoErr != nil {
			return model.URL{}, errors.Join(err, undoErr)
		}
		return model.URL{}, err
	}

	return created, nil
}

// The remaining mutations are checked, logged and only then applied.

func (s *Storage) AddClicks(ctx context.Context, code string, n int64, at time.Time) error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	exists, err := s.Storage.ExistsCode(ctx, code)
	if err != nil || !exists {
		return err
	}

	if err := s.appendRecord(record{Op: opClick, ShortCode: code, Clicks: n, At: &at}); err != nil {
		return err
	}

	return s.Storage.AddClicks(ctx, code, n, at)
}

func (s *Storage) DeleteURL(ctx context.Context, id int64) error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	if _, err := s.Storage.GetURLByID(ctx, id); err != nil {
		return err
	}

	if err := s.appendRecord(record{Op: opDelete, ID: id}); err != nil {
		return err
	}

	return s.Storage.DeleteURL(ctx, id)
}

func (s *Storage) CreateUser(ctx context.Context, u model.User) error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	if err := s.userAvailable(ctx, u); err != nil {
		return err
	}

	err := s.appendRecord(record{Op: opUser, User: &userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	}})
	if err != nil {
		return err
	}

	return s.Storage.CreateUser(ctx, u)
}

func (s *Storage) SaveAbout(ctx context.Context, a model.About) error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	at := a.LastModified
	if err := s.appendRecord(record{Op: opAbout, Content: a.Content, UserID: a.ModifiedByID, At: &at}); err != nil {
		return err
	}

	return s.Storage.SaveAbout(ctx, a)
}

// userAvailable mirrors the uniqueness checks of memory.CreateUser.
func (s *Storage) userAvailable(ctx context.Context, u model.User) error {
	if _, err := s.Storage.GetUserByUsername(ctx, u.Username); err == nil {
		return storage.ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if _, err := s.Storage.GetUserByID(ctx, u.ID); err == nil {
		return storage.ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	return nil
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(file)
	line := 0

	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record at line %d: %w", line, err)
		}

		if err := s.apply(ctx, rec); err != nil {
			return fmt.Errorf("failed to replay record at line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (s *Storage) apply(ctx context.Context, rec record) error {
	at := time.Time{}
	if rec.At != nil {
		at = *rec.At
	}

	switch rec.Op {
	case opCreate:
		_, err := s.Storage.CreateURL(ctx, model.URL{
			ID:          rec.ID,
			OriginalURL: rec.OriginalURL,
			ShortCode:   rec.ShortCode,
			CreatedByID: rec.UserID,
			CreatedAt:   at,
		})
		return err
	case opClick:
		return s.Storage.AddClicks(ctx, rec.ShortCode, rec.Clicks, at)
	case opDelete:
		return s.Storage.DeleteURL(ctx, rec.ID)
	case opUser:
		if rec.User == nil {
			return fmt.Errorf("user record without payload")
		}
		return s.Storage.CreateUser(ctx, model.User{
			ID:           rec.User.ID,
			Username:     rec.User.Username,
			Email:        rec.User.Email,
			FirstName:    rec.User.FirstName,
			LastName:     rec.User.LastName,
			PasswordHash: rec.User.PasswordHash,
			Role:         rec.User.Role,
		})
	case opAbout:
		return s.Storage.SaveAbout(ctx, model.About{Content: rec.Content, ModifiedByID: rec.UserID, LastModified: at})
	default:
		return fmt.Errorf("unknown op %q", rec.Op)
	}
}

// appendRecord must be called with fileWriteMu held.
func (s *Storage) appendRecord(rec record) error {
	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
