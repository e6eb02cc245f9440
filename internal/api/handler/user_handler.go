package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/ports"
)

type createUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required"`
	Phone    string `json:"phone"`
	RoleID   string `json:"role_id"  validate:"required"`
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	RoleID *string `json:"role_id"`
}

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		RoleID:   req.RoleID,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserView(user))
}

func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(user))
}

func (h *UserHandler) List(c echo.Context) error {
	res, err := h.users.List(c.Request().Context(), listFilterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res, toUserView))
}

func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	input := ports.UpdateUserInput{Name: req.Name, Phone: req.Phone, RoleID: req.RoleID}
	if err := h.users.Update(c.Request().Context(), c.Param("id"), input, actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Restore(c echo.Context) error {
	if _, err := ctxActor(c); err != nil {
		return err
	}
	if err := h.users.Restore(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
