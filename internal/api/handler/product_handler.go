package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

type createProductRequest struct {
	Name           string  `json:"name"            validate:"required"`
	Price          float64 `json:"price"           validate:"gte=0"`
	MonthsDuration int     `json:"months_duration" validate:"required,gt=0"`
	IsActive       bool    `json:"is_active"`
}

type updateProductRequest struct {
	Name           *string  `json:"name"`
	Price          *float64 `json:"price"`
	MonthsDuration *int     `json:"months_duration"`
	IsActive       *bool    `json:"is_active"`
}

type productView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	MonthsDuration int     `json:"months_duration"`
	IsActive       bool    `json:"is_active"`
}

func toProductView(p *domain.Product) productView {
	return productView{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		MonthsDuration: p.MonthsDuration,
		IsActive:       p.IsActive,
	}
}

type ProductHandler struct {
	products ports.ProductService
}

func NewProductHandler(products ports.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	product, err := h.products.Create(c.Request().Context(), ports.CreateProductInput{
		Name:           req.Name,
		Price:          req.Price,
		MonthsDuration: req.MonthsDuration,
		IsActive:       req.IsActive,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProductView(product))
}

func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.products.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductView(product))
}

func (h *ProductHandler) List(c echo.Context) error {
	res, err := h.products.List(c.Request().Context(), listFilterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res, toProductView))
}

func (h *ProductHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	input := ports.UpdateProductInput{
		Name:           req.Name,
		Price:          req.Price,
		MonthsDuration: req.MonthsDuration,
		IsActive:       req.IsActive,
	}
	if err := h.products.Update(c.Request().Context(), c.Param("id"), input, actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
