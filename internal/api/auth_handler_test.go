package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/api"
	"github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/mocks"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

const testSecret = "handler-test-secret-key-long-enough!!!"

type authFixture struct {
	users  *mocks.MemoryUserStore
	jwt    auth.JWTService
	google *mocks.StaticGoogleVerifier
	router chi.Router
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := mocks.NewMemoryUserStore()
	jwtService := auth.NewTestJWTService(testSecret, 15*time.Minute, time.Now)
	google := &mocks.StaticGoogleVerifier{Identities: map[string]*auth.GoogleIdentity{}}

	handler := api.NewAuthHandler(users, jwtService, mocks.PlainPasswordVerifier{}, google, slog.Default())
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)
	r.Post("/auth/refresh", handler.Refresh)
	r.Post("/auth/google", handler.GoogleLogin)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/auth/me", handler.Me)
		r.Put("/auth/profile/avatar", handler.UpdateAvatar)
	})

	return &authFixture{users: users, jwt: jwtService, google: google, router: r}
}

func (f *authFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success returns user and token pair", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "password123",
		}, "")

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		resp := decodeBody[api.AuthResponse](t, rec)
		assert.Equal(t, "ada@example.com", resp.User.Email)
		assert.Equal(t, domain.RoleUser, resp.User.Role)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		claims, err := f.jwt.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		body := api.RegisterRequest{Name: "Ada", Email: "dup@example.com", Password: "password123"}
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", body, "").Code)

		rec := f.do(t, http.MethodPost, "/auth/register", body, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "short",
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	register := func(t *testing.T, f *authFixture, email, password string) {
		rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
			Name:     "User",
			Email:    email,
			Password: password,
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		register(t, f, "login@example.com", "password123")

		rec := f.do(t, http.MethodPost, "/auth/login", api.LoginRequest{
			Email:    "login@example.com",
			Password: "password123",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[api.AuthResponse](t, rec)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		register(t, f, "wrongpw@example.com", "password123")

		rec := f.do(t, http.MethodPost, "/auth/login", api.LoginRequest{
			Email:    "wrongpw@example.com",
			Password: "password124",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email matches the wrong-password response", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		rec := f.do(t, http.MethodPost, "/auth/login", api.LoginRequest{
			Email:    "ghost@example.com",
			Password: "password123",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
		Name:     "Refresher",
		Email:    "refresh@example.com",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	registered := decodeBody[api.AuthResponse](t, rec)

	t.Run("refresh token yields a new pair", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/auth/refresh", api.RefreshRequest{
			RefreshToken: registered.RefreshToken,
		}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		pair := decodeBody[api.TokenPairResponse](t, rec)
		claims, err := f.jwt.ValidateToken(context.Background(), pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.UserID)
	})

	t.Run("access token is rejected as refresh token", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/auth/refresh", api.RefreshRequest{
			RefreshToken: registered.AccessToken,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()

	t.Run("first login creates the user", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.google.Identities["good-token"] = &auth.GoogleIdentity{
			Subject: "sub-1",
			Email:   "fed@example.com",
			Name:    "Fed User",
			Picture: "https://example.com/p.png",
		}

		rec := f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "good-token"}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[api.AuthResponse](t, rec)
		assert.Equal(t, "fed@example.com", resp.User.Email)

		user, err := f.users.GetByEmail(context.Background(), "fed@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderGoogle, user.Provider)
		assert.Equal(t, "sub-1", user.GoogleID)
	})

	t.Run("repeat login reuses the user", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.google.Identities["tok"] = &auth.GoogleIdentity{
			Subject: "sub-2",
			Email:   "repeat@example.com",
			Name:    "Repeat",
		}

		first := decodeBody[api.AuthResponse](t, f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "tok"}, ""))
		second := decodeBody[api.AuthResponse](t, f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "tok"}, ""))
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("repeat login refreshes a changed picture", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.google.Identities["tok"] = &auth.GoogleIdentity{
			Subject: "sub-3",
			Email:   "pic@example.com",
			Name:    "Pic",
			Picture: "https://example.com/v1.png",
		}

		rec := f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "tok"}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		f.google.Identities["tok"].Picture = "https://example.com/v2.png"
		resp := decodeBody[api.AuthResponse](t, f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "tok"}, ""))
		assert.Equal(t, "https://example.com/v2.png", resp.User.Avatar)

		user, err := f.users.GetByEmail(context.Background(), "pic@example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/v2.png", user.Avatar)
	})

	t.Run("password account gets linked on federated login", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
			Name:     "Linked",
			Email:    "linked@example.com",
			Password: "password123",
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)

		f.google.Identities["tok"] = &auth.GoogleIdentity{
			Subject: "sub-4",
			Email:   "linked@example.com",
			Name:    "Linked",
			Picture: "https://example.com/g.png",
		}
		rec = f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "tok"}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		user, err := f.users.GetByEmail(context.Background(), "linked@example.com")
		require.NoError(t, err)
		assert.Equal(t, "sub-4", user.GoogleID)
		assert.Equal(t, "https://example.com/g.png", user.Avatar)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		rec := f.do(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "bogus"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMeAndAvatar(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	rec := f.do(t, http.MethodPost, "/auth/register", api.RegisterRequest{
		Name:     "Profile",
		Email:    "profile@example.com",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	registered := decodeBody[api.AuthResponse](t, rec)

	t.Run("me returns the profile", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/auth/me", nil, registered.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)

		user := decodeBody[api.UserResponse](t, rec)
		assert.Equal(t, registered.User.ID, user.ID)
		assert.Equal(t, "profile@example.com", user.Email)
	})

	t.Run("me without a token is unauthorized", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("avatar update round-trips", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/auth/profile/avatar", api.UpdateAvatarRequest{
			Avatar: "https://example.com/new.png",
		}, registered.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		user := decodeBody[api.UserResponse](t, rec)
		assert.Equal(t, "https://example.com/new.png", user.Avatar)
	})
}
