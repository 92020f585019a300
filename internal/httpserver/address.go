package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/logging"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/transport"
)

type AddressHTTP struct {
	Repo *repo.AddressRepo
}

func (h *AddressHTTP) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("list_addresses_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	addrs, err := h.Repo.ListByBuyer(ctx, buyer)
	if err != nil {
		l.Error("list_addresses_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, addrs)
}

func (h *AddressHTTP) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("create_address_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.CreateAddressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_address_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Receiver == "" || req.Addr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "receiver and addr required")
	}

	addr := models.Address{
		BuyerID:  buyer,
		Receiver: req.Receiver,
		Addr:     req.Addr,
		Zip:      req.Zip,
		Phone:    req.Phone,
	}
	if err := h.Repo.Create(ctx, &addr); err != nil {
		l.Error("create_address_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, addr)
}
