package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
)

// AuthHandler handles registration, login and token refresh requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	googleVerifier   auth.GoogleVerifier
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	googleVerifier auth.GoogleVerifier,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		googleVerifier:   googleVerifier,
		validator:        validator.New(),
		logger:           logger.With("component", "auth_handler"),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	user, err := domain.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already registered")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to register user", err)
		return
	}

	h.respondWithTokens(w, r, user, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to log in", err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithTokens(w, r, user, http.StatusOK)
}

// Refresh handles POST /auth/refresh. It exchanges a valid refresh token for
// a fresh access/refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Refresh token expired")
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrWrongTokenType),
			errors.Is(err, auth.ErrTokenNotYetValid):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to refresh token", err)
		}
		return
	}

	// Re-read the user so tokens carry the current role even if it changed
	// since the refresh token was issued.
	user, err := h.userStore.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to refresh token", err)
		return
	}

	accessToken, err := h.jwtService.GenerateToken(r.Context(), user.ID, user.Role)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to refresh token", err)
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), user.ID, user.Role)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to refresh token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// GoogleLogin handles POST /auth/google. It verifies the Google ID token and
// finds or creates the matching user, keyed by email.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	identity, err := h.googleVerifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleLoginDisabled) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Google login is not available")
			return
		}
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid Google token")
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), identity.Email)
	switch {
	case err == nil:
		// Known email. Link the Google identity on first federated login and
		// pick up a changed profile picture on every repeat login.
		changed := false
		if user.GoogleID == "" {
			user.GoogleID = identity.Subject
			changed = true
		}
		if identity.Picture != "" && user.Avatar != identity.Picture {
			user.Avatar = identity.Picture
			changed = true
		}
		if changed {
			if err := h.userStore.Update(r.Context(), user); err != nil {
				h.logger.Warn("failed to link google identity",
					"user_id", user.ID,
					"error", err)
			}
		}
	case store.IsNotFoundError(err):
		user, err = domain.NewGoogleUser(identity.Name, identity.Email, identity.Subject, identity.Picture)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.userStore.Create(r.Context(), user); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to log in with Google", err)
			return
		}
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to log in with Google", err)
		return
	}

	h.respondWithTokens(w, r, user, http.StatusOK)
}

// Me handles GET /auth/me. It returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load profile", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// UpdateAvatar handles PUT /auth/profile/avatar.
func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateAvatarRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update avatar", err)
		return
	}

	user.Avatar = req.Avatar
	if err := h.userStore.Update(r.Context(), user); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update avatar", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// respondWithTokens issues an access/refresh token pair for the user and
// writes the combined auth response.
func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, user *domain.User, status int) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), user.ID, user.Role)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), user.ID, user.Role)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		User:         NewUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
