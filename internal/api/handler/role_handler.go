package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

type createRoleRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	IsActive      bool     `json:"is_active"`
	PermissionIDs []string `json:"permission_ids"`
}

type updateRoleRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	IsActive      *bool     `json:"is_active"`
	PermissionIDs *[]string `json:"permission_ids"`
}

type roleView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	IsActive      bool     `json:"is_active"`
	PermissionIDs []string `json:"permission_ids"`
}

func toRoleView(r *domain.Role) roleView {
	return roleView{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		IsActive:      r.IsActive,
		PermissionIDs: r.PermissionIDs,
	}
}

type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

func (h *RoleHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, err := h.roles.Create(c.Request().Context(), ports.CreateRoleInput{
		Name:          req.Name,
		Description:   req.Description,
		IsActive:      req.IsActive,
		PermissionIDs: req.PermissionIDs,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoleView(role))
}

func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.roles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleView(role))
}

func (h *RoleHandler) List(c echo.Context) error {
	res, err := h.roles.List(c.Request().Context(), listFilterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res, toRoleView))
}

func (h *RoleHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	input := ports.UpdateRoleInput{
		Name:          req.Name,
		Description:   req.Description,
		IsActive:      req.IsActive,
		PermissionIDs: req.PermissionIDs,
	}
	if err := h.roles.Update(c.Request().Context(), c.Param("id"), input, actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RoleHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.roles.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
