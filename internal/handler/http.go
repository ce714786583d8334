package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/logger"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/pool"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// requestTimeout bounds storage work done on behalf of one request.
const requestTimeout = 3 * time.Second

type URLService interface {
	CreateShortURL(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error)
	ListAll(ctx context.Context) ([]model.URLView, error)
	GetDetails(ctx context.Context, id int64) (model.URLDetails, error)
	ResolveOriginalURL(ctx context.Context, code string) (string, error)
	RecordClick(ctx context.Context, code string) error
	Delete(ctx context.Context, id int64, principal model.Principal) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (model.LoginResponse, error)
}

type AboutService interface {
	Get(ctx context.Context) (model.About, error)
	Update(ctx context.Context, content string, principal model.Principal) (model.About, error)
}

// ClickQueue accepts clicks for asynchronous recording.
type ClickQueue interface {
	Submit(ctx context.Context, code string) error
}

type DBPinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	urlService         URLService
	authService        AuthService
	aboutService       AboutService
	dbPinger           DBPinger
	authMiddleware     *middleware.AuthMiddleware
	loginLimiter       *middleware.IPRateLimiter
	clicks             ClickQueue
	requireAuthForList bool
	corsOrigins        []string
	buffers            *pool.Pool[*bytes.Buffer]
}

type Option func(*Handler)

// WithLoginLimiter rate limits POST /api/auth/login per client IP.
func WithLoginLimiter(l *middleware.IPRateLimiter) Option {
	return func(h *Handler) { h.loginLimiter = l }
}

// WithClickQueue records redirect clicks through q instead of inline.
func WithClickQueue(q ClickQueue) Option {
	return func(h *Handler) { h.clicks = q }
}

// WithListAuth makes GET /api/urls require a bearer token.
func WithListAuth(required bool) Option {
	return func(h *Handler) { h.requireAuthForList = required }
}

// WithCORS lets browsers on origins call the API with credentials.
func WithCORS(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

func NewHandler(urlService URLService, authService AuthService, aboutService AboutService, dbPinger DBPinger, authMiddleware *middleware.AuthMiddleware, opts ...Option) *Handler {
	h := &Handler{
		urlService:     urlService,
		authService:    authService,
		aboutService:   aboutService,
		dbPinger:       dbPinger,
		authMiddleware: authMiddleware,
		buffers:        pool.New(64, func() *bytes.Buffer { return new(bytes.Buffer) }),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(logger.RequestLogger)

	if len(h.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(middleware.GzipReader)
	r.Use(middleware.GzipMiddleware)

	r.Get("/ping", h.handlePing)

	r.Route("/api", func(r chi.Router) {
		login := r.With()
		if h.loginLimiter != nil {
			login = r.With(h.loginLimiter.Middleware)
		}
		login.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Authenticate)
			r.Get("/about", h.handleGetAbout)
			if !h.requireAuthForList {
				r.Get("/urls", h.handleListURLs)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.RequireAuth)
			if h.requireAuthForList {
				r.Get("/urls", h.handleListURLs)
			}
			r.Post("/urls", h.handleCreateURL)
			r.Get("/urls/{id}", h.handleGetURL)
			r.Delete("/urls/{id}", h.handleDeleteURL)
			r.With(middleware.RequireRole(model.RoleAdmin)).Put("/about", h.handleUpdateAbout)
		})
	})

	r.Get("/{shortCode}", h.handleRedirect)

	return r
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.authService.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListURLs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	urls, err := h.urlService.ListAll(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, urls)
}

func (h *Handler) handleGetURL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.writeJSONError(w, http.StatusNotFound, "URL not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	details, err := h.urlService.GetDetails(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

func (h *Handler) handleCreateURL(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	var req model.CreateURLRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.urlService.CreateShortURL(ctx, req.OriginalURL, principal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/urls/"+strconv.FormatInt(view.ID, 10))
	h.writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleDeleteURL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.writeJSONError(w, http.StatusNotFound, "URL not found")
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	deleted, err := h.urlService.Delete(ctx, id, principal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !deleted {
		h.writeJSONError(w, http.StatusNotFound, "URL not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "shortCode")
	if code == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	originalURL, err := h.urlService.ResolveOriginalURL(ctx, code)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.writeError(w, err)
		return
	}

	h.recordClick(ctx, code)

	http.Redirect(w, r, originalURL, http.StatusFound)
}

// recordClick never fails the redirect; errors are only logged.
func (h *Handler) recordClick(ctx context.Context, code string) {
	if h.clicks != nil {
		err := h.clicks.Submit(ctx, code)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("code", code).Msg("Click queue unavailable, recording inline")
	}

	if err := h.urlService.RecordClick(ctx, code); err != nil {
		log.Error().Err(err).Str("code", code).Msg("Failed to record click")
	}
}

func (h *Handler) handleGetAbout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	about, err := h.aboutService.Get(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, about)
}

func (h *Handler) handleUpdateAbout(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	var req model.UpdateAboutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	about, err := h.aboutService.Update(ctx, req.Content, principal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, about)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if h.dbPinger == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.dbPinger.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Storage ping failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
