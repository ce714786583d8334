package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	constraintShortCode   = "urls_short_code_key"
	constraintOriginalURL = "urls_original_url_key"
	constraintUsername    = "users_username_key"

	connectTimeout = 10 * time.Second
)

// Storage is the PostgreSQL backend.
type Storage struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewStorage applies migrations and opens a connection pool for dsn.
func NewStorage(dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Msg("PostgreSQL storage initialized")

	return &Storage{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info().Msg("Migrations applied")
	return nil
}

func (s *Storage) CreateURL(ctx context.Context, u model.URL) (model.URL, error) {
	query, args, err := s.sb.
		Insert("urls").
		Columns("original_url", "short_code", "created_by_id", "created_at", "click_count").
		Values(u.OriginalURL, u.ShortCode, u.CreatedByID, u.CreatedAt, u.ClickCount).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.URL{}, fmt.Errorf("build query: %w", err)
	}

	if err := s.pool.QueryRow(ctx, query, args...).Scan(&u.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case constraintOriginalURL:
				return model.URL{}, storage.ErrURLExists
			case constraintShortCode:
				return model.URL{}, storage.ErrCodeTaken
			}
		}
		return model.URL{}, fmt.Errorf("insert url: %w", err)
	}

	return u, nil
}

func (s *Storage) selectURLWithOwner() squirrel.SelectBuilder {
	return s.sb.
		Select(
			"u.id", "u.original_url", "u.short_code", "u.created_by_id", "u.created_at",
			"u.click_count", "u.last_accessed_at",
			"COALESCE(o.username, '')", "COALESCE(o.first_name, '')", "COALESCE(o.last_name, '')",
		).
		From("urls u").
		LeftJoin("users o ON o.id = u.created_by_id")
}

func scanURLWithOwner(row pgx.Row) (model.URLWithOwner, error) {
	var r model.URLWithOwner
	err := row.Scan(
		&r.ID, &r.OriginalURL, &r.ShortCode, &r.CreatedByID, &r.CreatedAt,
		&r.ClickCount, &r.LastAccessedAt,
		&r.OwnerUsername, &r.OwnerFirstName, &r.OwnerLastName,
	)
	return r, err
}

func (s *Storage) GetURLByID(ctx context.Context, id int64) (model.URLWithOwner, error) {
	query, args, err := s.selectURLWithOwner().Where(squirrel.Eq{"u.id": id}).ToSql()
	if err != nil {
		return model.URLWithOwner{}, fmt.Errorf("build query: %w", err)
	}

	r, err := scanURLWithOwner(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.URLWithOwner{}, fmt.Errorf("url %d: %w", id, storage.ErrNotFound)
		}
		return model.URLWithOwner{}, fmt.Errorf("query url: %w", err)
	}

	return r, nil
}

func (s *Storage) GetURLByCode(ctx context.Context, code string) (model.URL, error) {
	query, args, err := s.sb.
		Select("id", "original_url", "short_code", "created_by_id", "created_at", "click_count", "last_accessed_at").
		From("urls").
		Where(squirrel.Eq{"short_code": code}).
		ToSql()
	if err != nil {
		return model.URL{}, fmt.Errorf("build query: %w", err)
	}

	var u model.URL
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.OriginalURL, &u.ShortCode, &u.CreatedByID, &u.CreatedAt, &u.ClickCount, &u.LastAccessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.URL{}, fmt.Errorf("code %q: %w", code, storage.ErrNotFound)
		}
		return model.URL{}, fmt.Errorf("query url: %w", err)
	}

	return u, nil
}

func (s *Storage) exists(ctx context.Context, column, value string) (bool, error) {
	sub, args, err := s.sb.Select("1").From("urls").Where(squirrel.Eq{column: value}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT EXISTS("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}

	return exists, nil
}

func (s *Storage) ExistsOriginalURL(ctx context.Context, originalURL string) (bool, error) {
	return s.exists(ctx, "original_url", originalURL)
}

func (s *Storage) ExistsCode(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, "short_code", code)
}

func (s *Storage) ListURLs(ctx context.Context) ([]model.URLWithOwner, error) {
	query, args, err := s.selectURLWithOwner().OrderBy("u.created_at DESC", "u.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query urls: %w", err)
	}
	defer rows.Close()

	result := make([]model.URLWithOwner, 0)
	for rows.Next() {
		r, err := scanURLWithOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate urls: %w", err)
	}

	return result, nil
}

// AddClicks increments in a single statement so concurrent redirects never lose updates.
// last_accessed_at only moves forward when batches land out of order.
func (s *Storage) AddClicks(ctx context.Context, code string, n int64, at time.Time) error {
	query, args, err := s.sb.
		Update("urls").
		Set("click_count", squirrel.Expr("click_count + ?", n)).
		Set("last_accessed_at", squirrel.Expr("GREATEST(COALESCE(last_accessed_at, ?::timestamptz), ?::timestamptz)", at, at)).
		Where(squirrel.Eq{"short_code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update clicks: %w", err)
	}

	return nil
}

func (s *Storage) DeleteURL(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete("urls").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete url: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("url %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) CreateUser(ctx context.Context, u model.User) error {
	query, args, err := s.sb.
		Insert("users").
		Columns("id", "username", "email", "first_name", "last_name", "password_hash", "role").
		Values(u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, string(u.Role)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (s *Storage) getUser(ctx context.Context, column, value string) (model.User, error) {
	query, args, err := s.sb.
		Select("id", "username", "email", "first_name", "last_name", "password_hash", "role").
		From("users").
		Where(squirrel.Eq{column: value}).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("build query: %w", err)
	}

	var (
		u    model.User
		role string
	)
	err = s.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %q: %w", value, storage.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	u.Role = model.Role(role)

	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Storage) GetAbout(ctx context.Context) (model.About, error) {
	query, args, err := s.sb.
		Select("a.content", "a.last_modified", "COALESCE(a.modified_by_id, '')", "COALESCE(u.username, '')").
		From("about a").
		LeftJoin("users u ON u.id = a.modified_by_id").
		Where(squirrel.Eq{"a.id": 1}).
		ToSql()
	if err != nil {
		return model.About{}, fmt.Errorf("build query: %w", err)
	}

	var a model.About
	err = s.pool.QueryRow(ctx, query, args...).Scan(&a.Content, &a.LastModified, &a.ModifiedByID, &a.ModifiedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.About{}, storage.ErrNotFound
		}
		return model.About{}, fmt.Errorf("query about: %w", err)
	}

	return a, nil
}

func (s *Storage) SaveAbout(ctx context.Context, a model.About) error {
	var modifiedBy interface{}
	if a.ModifiedByID != "" {
		modifiedBy = a.ModifiedByID
	}

	query, args, err := s.sb.
		Insert("about").
		Columns("id", "content", "last_modified", "modified_by_id").
		Values(1, a.Content, a.LastModified, modifiedBy).
		Suffix("ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, last_modified = EXCLUDED.last_modified, modified_by_id = EXCLUDED.modified_by_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save about: %w", err)
	}

	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
