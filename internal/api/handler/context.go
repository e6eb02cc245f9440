package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/domain"
)

// ctxActor extracts the authenticated actor injected by the Auth middleware
// and performs a fast-fail check before any service call: a request that
// reached a protected handler without identity claims means the middleware
// did not run — reject with 401 rather than proceed with an empty actor.
func ctxActor(c echo.Context) (domain.ActorRef, error) {
	id, _ := c.Get("user_id").(string)
	if id == "" {
		return domain.ActorRef{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	email, _ := c.Get("email").(string)
	return domain.ActorRef{ID: id, Email: email}, nil
}
