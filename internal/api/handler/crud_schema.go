package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/t2m/license-platform/internal/core/ports"
)

// listMeta mirrors the pagination block of every list response.
type listMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listResponse[T any] struct {
	Meta  listMeta `json:"meta"`
	Items []T      `json:"items"`
}

func toListResponse[S, T any](res *ports.ListResult[S], convert func(S) T) listResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, convert(it))
	}
	return listResponse[T]{
		Meta: listMeta{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
		Items: items,
	}
}

// listFilterFrom reads the common query parameters. include_deleted is only
// honored on routes already gated by an administrative permission.
func listFilterFrom(c echo.Context) ports.ListFilter {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	includeDeleted, _ := strconv.ParseBool(c.QueryParam("include_deleted"))
	return ports.ListFilter{
		Search:         c.QueryParam("search"),
		Page:           page,
		Limit:          limit,
		IncludeDeleted: includeDeleted,
	}
}
