package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type mockURLService struct {
	createShortURLFunc     func(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error)
	listAllFunc            func(ctx context.Context) ([]model.URLView, error)
	getDetailsFunc         func(ctx context.Context, id int64) (model.URLDetails, error)
	resolveOriginalURLFunc func(ctx context.Context, code string) (string, error)
	recordClickFunc        func(ctx context.Context, code string) error
	deleteFunc             func(ctx context.Context, id int64, principal model.Principal) (bool, error)
}

func (m *mockURLService) CreateShortURL(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error) {
	return m.createShortURLFunc(ctx, originalURL, principal)
}

func (m *mockURLService) ListAll(ctx context.Context) ([]model.URLView, error) {
	return m.listAllFunc(ctx)
}

func (m *mockURLService) GetDetails(ctx context.Context, id int64) (model.URLDetails, error) {
	return m.getDetailsFunc(ctx, id)
}

func (m *mockURLService) ResolveOriginalURL(ctx context.Context, code string) (string, error) {
	return m.resolveOriginalURLFunc(ctx, code)
}

func (m *mockURLService) RecordClick(ctx context.Context, code string) error {
	if m.recordClickFunc == nil {
		return nil
	}
	return m.recordClickFunc(ctx, code)
}

func (m *mockURLService) Delete(ctx context.Context, id int64, principal model.Principal) (bool, error) {
	return m.deleteFunc(ctx, id, principal)
}

type mockAuthService struct {
	loginFunc func(ctx context.Context, username, password string) (model.LoginResponse, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	return m.loginFunc(ctx, username, password)
}

type mockAboutService struct {
	getFunc    func(ctx context.Context) (model.About, error)
	updateFunc func(ctx context.Context, content string, principal model.Principal) (model.About, error)
}

func (m *mockAboutService) Get(ctx context.Context) (model.About, error) {
	return m.getFunc(ctx)
}

func (m *mockAboutService) Update(ctx context.Context, content string, principal model.Principal) (model.About, error) {
	return m.updateFunc(ctx, content, principal)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

type mockClickQueue struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (m *mockClickQueue) Submit(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes = append(m.codes, code)
	return nil
}

type mockValidator struct {
	tokens map[string]model.Principal
}

func (m *mockValidator) ValidateToken(token string) (*auth.Claims, error) {
	p, ok := m.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	c := &auth.Claims{Username: p.Username, Role: p.Role}
	c.Subject = p.ID
	return c, nil
}

var (
	adminPrincipal = model.Principal{ID: "admin-id", Username: "admin", Role: model.RoleAdmin}
	userPrincipal  = model.Principal{ID: "user-id", Username: "user", Role: model.RoleUser}
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type testDeps struct {
	urls   *mockURLService
	auth   *mockAuthService
	about  *mockAboutService
	pinger *mockPinger
}

func newTestRouter(t *testing.T, deps testDeps, opts ...Option) http.Handler {
	t.Helper()

	if deps.urls == nil {
		deps.urls = &mockURLService{}
	}
	if deps.auth == nil {
		deps.auth = &mockAuthService{}
	}
	if deps.about == nil {
		deps.about = &mockAboutService{}
	}
	if deps.pinger == nil {
		deps.pinger = &mockPinger{}
	}

	validator := &mockValidator{tokens: map[string]model.Principal{
		adminToken: adminPrincipal,
		userToken:  userPrincipal,
	}}

	h := NewHandler(deps.urls, deps.auth, deps.about, deps.pinger, middleware.NewAuthMiddleware(validator), opts...)
	return h.RegisterRoutes()
}

func doRequest(t *testing.T, router http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Message
}

func sampleView() model.URLView {
	return model.URLView{
		ID:          42,
		OriginalURL: "https://example.com/some/long/path",
		ShortCode:   "aB3xY9",
		ShortURL:    "http://localhost:8080/aB3xY9",
		CreatedBy:   "user",
		CreatedDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Login(t *testing.T) {
	expires := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

	authService := &mockAuthService{
		loginFunc: func(ctx context.Context, username, password string) (model.LoginResponse, error) {
			if username != "admin" || password != "admin123" {
				return model.LoginResponse{}, errx.E("test", errx.Unauthorized, errors.New("invalid username or password"))
			}
			return model.LoginResponse{Token: "jwt", Username: "admin", Role: model.RoleAdmin, ExpiresAt: expires}, nil
		},
	}
	router := newTestRouter(t, testDeps{auth: authService})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "valid credentials",
			body:       `{"username":"admin","password":"admin123"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "wrong password",
			body:        `{"username":"admin","password":"nope"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid username or password",
		},
		{
			name:        "missing fields",
			body:        `{"username":"admin"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid username or password",
		},
		{
			name:        "malformed body",
			body:        `{"username":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodPost, "/api/auth/login", tt.body, "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, errorMessage(t, rr))
				return
			}

			var resp model.LoginResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "jwt", resp.Token)
			assert.Equal(t, model.RoleAdmin, resp.Role)
			assert.True(t, expires.Equal(resp.ExpiresAt))
		})
	}
}

func TestHandler_LoginRateLimited(t *testing.T) {
	authService := &mockAuthService{
		loginFunc: func(ctx context.Context, username, password string) (model.LoginResponse, error) {
			return model.LoginResponse{}, errx.E("test", errx.Unauthorized, errors.New("invalid username or password"))
		},
	}
	limiter := middleware.NewIPRateLimiter(rate.Every(time.Hour), 2)
	router := newTestRouter(t, testDeps{auth: authService}, WithLoginLimiter(limiter))

	body := `{"username":"admin","password":"guess"}`
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, http.MethodPost, "/api/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, http.MethodPost, "/api/auth/login", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, router, http.MethodPost, "/api/auth/login", body, "").Code)

	// other routes are not limited
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/ping", "", "").Code)
}

func TestHandler_CreateURL(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		token        string
		serviceErr   error
		wantStatus   int
		wantMessage  string
		wantLocation string
	}{
		{
			name:         "created",
			body:         `{"originalUrl":"https://example.com/some/long/path"}`,
			token:        userToken,
			wantStatus:   http.StatusCreated,
			wantLocation: "/api/urls/42",
		},
		{
			name:        "duplicate",
			body:        `{"originalUrl":"https://example.com/some/long/path"}`,
			token:       userToken,
			serviceErr:  errx.E("service.CreateShortURL", errx.Conflict, storage.ErrURLExists),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "URL already exists",
		},
		{
			name:        "invalid url",
			body:        `{"originalUrl":"not a url"}`,
			token:       userToken,
			serviceErr:  errx.E("service.CreateShortURL", errx.Invalid, errors.New("invalid URL: not a url")),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid URL: not a url",
		},
		{
			name:        "empty body",
			body:        "",
			token:       userToken,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "request body is required",
		},
		{
			name:        "no token",
			body:        `{"originalUrl":"https://example.com"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "authentication required",
		},
		{
			name:        "bad token",
			body:        `{"originalUrl":"https://example.com"}`,
			token:       "forged",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid token",
		},
		{
			name:        "storage failure hides details",
			body:        `{"originalUrl":"https://example.com"}`,
			token:       userToken,
			serviceErr:  errx.E("service.CreateShortURL", errx.Internal, errors.New("connection refused")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPrincipal model.Principal
			urls := &mockURLService{
				createShortURLFunc: func(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error) {
					gotPrincipal = principal
					if tt.serviceErr != nil {
						return model.URLView{}, tt.serviceErr
					}
					return sampleView(), nil
				},
			}
			router := newTestRouter(t, testDeps{urls: urls})

			rr := doRequest(t, router, http.MethodPost, "/api/urls", tt.body, tt.token)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, errorMessage(t, rr))
				return
			}

			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			assert.Equal(t, userPrincipal, gotPrincipal)

			var view model.URLView
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
			assert.Equal(t, "aB3xY9", view.ShortCode)
			assert.Nil(t, view.LastAccessedDate)
		})
	}
}

func TestHandler_ListURLs(t *testing.T) {
	urls := &mockURLService{
		listAllFunc: func(ctx context.Context) ([]model.URLView, error) {
			return []model.URLView{sampleView()}, nil
		},
	}

	t.Run("public by default", func(t *testing.T) {
		router := newTestRouter(t, testDeps{urls: urls})

		rr := doRequest(t, router, http.MethodGet, "/api/urls", "", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var views []model.URLView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
		require.Len(t, views, 1)
		assert.Equal(t, int64(42), views[0].ID)
	})

	t.Run("invalid token is ignored on public list", func(t *testing.T) {
		router := newTestRouter(t, testDeps{urls: urls})

		rr := doRequest(t, router, http.MethodGet, "/api/urls", "", "forged")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("closed when configured", func(t *testing.T) {
		router := newTestRouter(t, testDeps{urls: urls}, WithListAuth(true))

		assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, http.MethodGet, "/api/urls", "", "").Code)
		assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/api/urls", "", userToken).Code)
	})
}

func TestHandler_GetURL(t *testing.T) {
	urls := &mockURLService{
		getDetailsFunc: func(ctx context.Context, id int64) (model.URLDetails, error) {
			if id != 42 {
				return model.URLDetails{}, errx.E("service.GetDetails", errx.NotFound, storage.ErrNotFound)
			}
			return model.URLDetails{URLView: sampleView(), CreatedByFullName: "Regular User"}, nil
		},
	}
	router := newTestRouter(t, testDeps{urls: urls})

	tests := []struct {
		name       string
		target     string
		token      string
		wantStatus int
	}{
		{name: "found", target: "/api/urls/42", token: userToken, wantStatus: http.StatusOK},
		{name: "unknown id", target: "/api/urls/7", token: userToken, wantStatus: http.StatusNotFound},
		{name: "non numeric id", target: "/api/urls/abc", token: userToken, wantStatus: http.StatusNotFound},
		{name: "anonymous", target: "/api/urls/42", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodGet, tt.target, "", tt.token)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusOK {
				var details model.URLDetails
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &details))
				assert.Equal(t, "Regular User", details.CreatedByFullName)
				assert.Equal(t, "aB3xY9", details.ShortCode)
			}
		})
	}
}

func TestHandler_DeleteURL(t *testing.T) {
	urls := &mockURLService{
		deleteFunc: func(ctx context.Context, id int64, principal model.Principal) (bool, error) {
			// only id 42, owned by user, exists
			if id != 42 {
				return false, nil
			}
			return principal.CanManage(userPrincipal.ID), nil
		},
	}
	router := newTestRouter(t, testDeps{urls: urls})

	tests := []struct {
		name       string
		target     string
		token      string
		wantStatus int
	}{
		{name: "owner", target: "/api/urls/42", token: userToken, wantStatus: http.StatusNoContent},
		{name: "admin", target: "/api/urls/42", token: adminToken, wantStatus: http.StatusNoContent},
		{name: "missing", target: "/api/urls/9", token: adminToken, wantStatus: http.StatusNotFound},
		{name: "bad id", target: "/api/urls/x", token: adminToken, wantStatus: http.StatusNotFound},
		{name: "anonymous", target: "/api/urls/42", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodDelete, tt.target, "", tt.token)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	t.Run("not owner", func(t *testing.T) {
		other := &mockURLService{
			deleteFunc: func(ctx context.Context, id int64, principal model.Principal) (bool, error) {
				return principal.CanManage("someone-else"), nil
			},
		}
		rr := doRequest(t, newTestRouter(t, testDeps{urls: other}), http.MethodDelete, "/api/urls/42", "", userToken)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandler_Redirect(t *testing.T) {
	newURLs := func(clicks *[]string) *mockURLService {
		return &mockURLService{
			resolveOriginalURLFunc: func(ctx context.Context, code string) (string, error) {
				if code != "aB3xY9" {
					return "", errx.E("service.ResolveOriginalURL", errx.NotFound, storage.ErrNotFound)
				}
				return "https://example.com/some/long/path", nil
			},
			recordClickFunc: func(ctx context.Context, code string) error {
				*clicks = append(*clicks, code)
				return nil
			},
		}
	}

	t.Run("found records click inline", func(t *testing.T) {
		var clicks []string
		router := newTestRouter(t, testDeps{urls: newURLs(&clicks)})

		rr := doRequest(t, router, http.MethodGet, "/aB3xY9", "", "")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "https://example.com/some/long/path", rr.Header().Get("Location"))
		assert.Equal(t, []string{"aB3xY9"}, clicks)
	})

	t.Run("unknown code", func(t *testing.T) {
		var clicks []string
		router := newTestRouter(t, testDeps{urls: newURLs(&clicks)})

		rr := doRequest(t, router, http.MethodGet, "/zzzzzz", "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Empty(t, clicks)
	})

	t.Run("queued click", func(t *testing.T) {
		var clicks []string
		queue := &mockClickQueue{}
		router := newTestRouter(t, testDeps{urls: newURLs(&clicks)}, WithClickQueue(queue))

		rr := doRequest(t, router, http.MethodGet, "/aB3xY9", "", "")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, []string{"aB3xY9"}, queue.codes)
		assert.Empty(t, clicks)
	})

	t.Run("closed queue falls back to inline", func(t *testing.T) {
		var clicks []string
		queue := &mockClickQueue{err: errors.New("closed")}
		router := newTestRouter(t, testDeps{urls: newURLs(&clicks)}, WithClickQueue(queue))

		rr := doRequest(t, router, http.MethodGet, "/aB3xY9", "", "")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, []string{"aB3xY9"}, clicks)
	})
}

func TestHandler_About(t *testing.T) {
	modified := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	about := &mockAboutService{
		getFunc: func(ctx context.Context) (model.About, error) {
			return model.About{Content: model.DefaultAboutContent}, nil
		},
		updateFunc: func(ctx context.Context, content string, principal model.Principal) (model.About, error) {
			if content == "" {
				return model.About{}, errx.E("service.UpdateAbout", errx.Invalid, errors.New("content is required"))
			}
			return model.About{Content: content, LastModified: modified, ModifiedBy: principal.Username}, nil
		},
	}
	router := newTestRouter(t, testDeps{about: about})

	rr := doRequest(t, router, http.MethodGet, "/api/about", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.About
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, model.DefaultAboutContent, got.Content)

	tests := []struct {
		name       string
		body       string
		token      string
		wantStatus int
	}{
		{name: "admin updates", body: `{"content":"new text"}`, token: adminToken, wantStatus: http.StatusOK},
		{name: "regular user", body: `{"content":"new text"}`, token: userToken, wantStatus: http.StatusForbidden},
		{name: "anonymous", body: `{"content":"new text"}`, wantStatus: http.StatusUnauthorized},
		{name: "empty content", body: `{"content":""}`, token: adminToken, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodPut, "/api/about", tt.body, tt.token)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusOK {
				var updated model.About
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
				assert.Equal(t, "new text", updated.Content)
				assert.Equal(t, "admin", updated.ModifiedBy)
			}
		})
	}
}

func TestHandler_Ping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "reachable", wantStatus: http.StatusOK},
		{name: "unreachable", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, testDeps{pinger: &mockPinger{err: tt.err}})
			assert.Equal(t, tt.wantStatus, doRequest(t, router, http.MethodGet, "/ping", "", "").Code)
		})
	}
}

func TestHandler_CORS(t *testing.T) {
	const allowed = "https://localhost:52662"

	preflight := func(router http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/urls", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("preflight from allowed origin", func(t *testing.T) {
		router := newTestRouter(t, testDeps{}, WithCORS([]string{allowed}))

		rec := preflight(router, allowed)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, allowed, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		router := newTestRouter(t, testDeps{}, WithCORS([]string{allowed}))

		rec := preflight(router, "https://evil.example.com")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request exposes location", func(t *testing.T) {
		router := newTestRouter(t, testDeps{}, WithCORS([]string{allowed}))

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", allowed)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, allowed, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Location", rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("disabled without origins", func(t *testing.T) {
		router := newTestRouter(t, testDeps{})

		rec := preflight(router, allowed)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHandler_GzipRoundTrip(t *testing.T) {
	urls := &mockURLService{
		createShortURLFunc: func(ctx context.Context, originalURL string, principal model.Principal) (model.URLView, error) {
			v := sampleView()
			v.OriginalURL = originalURL
			return v, nil
		},
	}
	router := newTestRouter(t, testDeps{urls: urls})

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write([]byte(`{"originalUrl":"https://example.com/gzipped"}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/urls", &compressed)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer "+userToken)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	var view model.URLView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "https://example.com/gzipped", view.OriginalURL)
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind errx.Kind
		want int
	}{
		{errx.Invalid, http.StatusBadRequest},
		{errx.Conflict, http.StatusBadRequest},
		{errx.Unauthorized, http.StatusUnauthorized},
		{errx.Forbidden, http.StatusForbidden},
		{errx.NotFound, http.StatusNotFound},
		{errx.Unavailable, http.StatusServiceUnavailable},
		{errx.Internal, http.StatusInternalServerError},
		{errx.Unknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForKind(tt.kind))
		})
	}
}
