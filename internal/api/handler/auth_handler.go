package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/api/metrics"
	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	authService ports.AuthService
	resolver    ports.RoleResolver
	users       ports.UserService
	refreshTTL  time.Duration
}

func NewAuthHandler(authService ports.AuthService, resolver ports.RoleResolver, users ports.UserService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, resolver: resolver, users: users, refreshTTL: refreshTTL}
}

// Register creates a new account with the USER role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userView
// @Failure      409   {object}  errorResponse
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserView(user))
}

// Login authenticates and opens a new device session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserView(user),
	})
}

// Refresh exchanges a live refresh token for a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token (or refresh_token cookie)"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshTokenFrom(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing refresh token")
	}

	pair, user, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSession):
			metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserView(user),
	})
}

// Logout closes the presented session. Safe to repeat.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	token := h.refreshTokenFrom(c)
	if token != "" {
		if err := h.authService.Logout(c.Request().Context(), actor.ID, token); err != nil {
			return err
		}
	}

	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Account returns the caller's profile and effective permission names.
//
// @Summary      Current account
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  accountResponse
// @Router       /v1/auth/account [get]
func (h *AuthHandler) Account(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}

	perms, err := h.resolver.Resolve(c.Request().Context(), user.RoleID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}

	return c.JSON(http.StatusOK, accountResponse{User: toUserView(user), Permissions: names})
}

// refreshTokenFrom prefers the JSON body over the cookie.
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	var req refreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/v1/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Phone:  u.Phone,
		RoleID: u.RoleID,
	}
}
