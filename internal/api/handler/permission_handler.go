package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

type createPermissionRequest struct {
	Name   string `json:"name"   validate:"required"`
	Method string `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Path   string `json:"path"   validate:"required,startswith=/"`
	Module string `json:"module"`
}

type updatePermissionRequest struct {
	Name   *string `json:"name"`
	Method *string `json:"method"`
	Path   *string `json:"path"`
	Module *string `json:"module"`
}

type permissionView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Module string `json:"module,omitempty"`
}

func toPermissionView(p *domain.Permission) permissionView {
	return permissionView{
		ID:     p.ID,
		Name:   p.Name,
		Method: p.Method,
		Path:   p.Path,
		Module: p.Module,
	}
}

type PermissionHandler struct {
	perms ports.PermissionService
}

func NewPermissionHandler(perms ports.PermissionService) *PermissionHandler {
	return &PermissionHandler{perms: perms}
}

func (h *PermissionHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createPermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	perm, err := h.perms.Create(c.Request().Context(), ports.CreatePermissionInput{
		Name:   req.Name,
		Method: req.Method,
		Path:   req.Path,
		Module: req.Module,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPermissionView(perm))
}

func (h *PermissionHandler) Get(c echo.Context) error {
	perm, err := h.perms.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionView(perm))
}

func (h *PermissionHandler) List(c echo.Context) error {
	res, err := h.perms.List(c.Request().Context(), listFilterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res, toPermissionView))
}

func (h *PermissionHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updatePermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	input := ports.UpdatePermissionInput{
		Name:   req.Name,
		Method: req.Method,
		Path:   req.Path,
		Module: req.Module,
	}
	if err := h.perms.Update(c.Request().Context(), c.Param("id"), input, actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PermissionHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.perms.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
