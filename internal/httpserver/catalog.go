package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/logging"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/search"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/util"
)

type CatalogHTTP struct {
	Repo   *repo.CatalogRepo
	ES     *elasticsearch.Client
	Index  string
	Events service.Events
}

func (h *CatalogHTTP) publish(c echo.Context, event map[string]any) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Events.PublishEvent(ctx, "sku_events", c.Param("id"), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish error", "error", err)
	}
}

func (h *CatalogHTTP) reindex(c echo.Context, sku *models.SKU) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexSKU(ctx, h.ES, h.Index, sku); err != nil {
		logging.FromContext(ctx).Warn("es index error", "sku_id", sku.ID, "error", err)
	}
}

func (h *CatalogHTTP) GetSKU(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sku id")
	}

	sku, err := h.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, reserve.ErrSKUNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sku not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, sku)
}

func (h *CatalogHTTP) ListSKUs(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.List(ctx, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *CatalogHTTP) CreateSKU(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create")

	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Stock       uint            `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "name and non-negative price required")
	}

	sku := models.SKU{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := h.Repo.Create(ctx, &sku); err != nil {
		l.Error("create_sku_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.reindex(c, &sku)
	h.publish(c, map[string]any{"type": "sku_created", "sku_id": sku.ID.String()})
	return c.JSON(http.StatusCreated, sku)
}

func (h *CatalogHTTP) PatchSKU(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sku id")
	}

	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		Stock       *uint            `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price cannot be negative")
	}

	sku, err := h.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, reserve.ErrSKUNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sku not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Name != nil {
		sku.Name = *req.Name
	}
	if req.Description != nil {
		sku.Description = *req.Description
	}
	if req.Price != nil {
		sku.Price = *req.Price
	}
	if req.Stock != nil {
		sku.Stock = *req.Stock
	}

	if err := h.Repo.Save(ctx, sku); err != nil {
		l.Error("patch_sku_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.reindex(c, sku)
	h.publish(c, map[string]any{"type": "sku_updated", "sku_id": sku.ID.String()})
	return c.JSON(http.StatusOK, sku)
}

func (h *CatalogHTTP) DeleteSKU(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sku id")
	}

	if err := h.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reserve.ErrSKUNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sku not found")
		}
		l.Error("delete_sku_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteSKU(ctx, h.ES, h.Index, id); err != nil {
			l.Warn("es delete error", "sku_id", id, "error", err)
		}
	}
	h.publish(c, map[string]any{"type": "sku_deleted", "sku_id": id.String()})
	return c.NoContent(http.StatusNoContent)
}
