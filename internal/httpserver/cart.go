package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/logging"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/transport"
)

type CartHTTP struct {
	Store   cart.Store
	Catalog *repo.CatalogRepo
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	items, err := h.Store.All(ctx, buyer)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SKUID == uuid.Nil || req.Quantity == 0 {
		l.Warn("add_to_cart_error", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "sku_id and quantity>0 required")
	}

	// The cart only ever references existing SKUs.
	if _, err := h.Catalog.Get(ctx, req.SKUID); err != nil {
		if errors.Is(err, reserve.ErrSKUNotFound) {
			l.Warn("add_to_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "sku not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.Store.Add(ctx, buyer, req.SKUID, req.Quantity); err != nil {
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("add_to_cart_success", "sku_id", req.SKUID)
	return c.NoContent(http.StatusCreated)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("set_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SKUID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "sku_id required")
	}

	if err := h.Store.Set(ctx, buyer, req.SKUID, req.Quantity); err != nil {
		l.Error("set_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusOK)
}

func (h *CartHTTP) DeleteFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("delete_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	skuID, err := uuid.Parse(c.Param("sku_id"))
	if err != nil {
		l.Warn("delete_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sku id")
	}

	// Deleting an absent line is a no-op.
	if err := h.Store.DeleteMany(ctx, buyer, []uuid.UUID{skuID}); err != nil {
		l.Error("delete_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusOK)
}
