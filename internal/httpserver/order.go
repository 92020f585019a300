package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/logging"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/transport"
	"github.com/freshmart/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	page, err := h.Svc.Checkout(ctx, buyer, req.SKUIDs)
	if err != nil {
		he := orderHTTPError(err)
		l.Warn("checkout_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, page)
}

func (h *OrderHTTP) CommitOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.commit")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("commit_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.CommitOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("commit_order_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	orderID, err := h.Svc.CommitOrder(ctx, buyer, req.AddressID, models.PayMethod(req.PayMethod), req.SKUIDs)
	if err != nil {
		he := orderHTTPError(err)
		l.Warn("commit_order_error", "status", he.Code, "error", err)
		return he
	}

	l.Info("commit_order_success", "order_id", orderID)
	return c.JSON(http.StatusCreated, transport.CommitOrderResponse{OrderID: orderID})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	history, err := h.Svc.ListOrders(ctx, buyer, offset, limit)
	if err != nil {
		he := orderHTTPError(err)
		l.Error("list_orders_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, history)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	view, err := h.Svc.GetOrder(ctx, buyer, c.Param("id"))
	if err != nil {
		he := orderHTTPError(err)
		l.Warn("get_order_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, view)
}

func (h *OrderHTTP) Comment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.comment")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("comment_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("comment_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SubmitComments(ctx, buyer, c.Param("id"), req.Comments); err != nil {
		he := orderHTTPError(err)
		l.Warn("comment_error", "status", he.Code, "error", err)
		return he
	}

	l.Info("comment_success", "order_id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("pay_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	payURL, err := h.Svc.PayOrder(ctx, buyer, c.Param("id"))
	if err != nil {
		he := orderHTTPError(err)
		l.Warn("pay_order_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, transport.PayOrderResponse{PayURL: payURL})
}

func (h *OrderHTTP) ConfirmPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirm_payment")

	buyer, err := buyerID(c)
	if err != nil {
		l.Warn("confirm_payment_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	txnID, err := h.Svc.ConfirmPayment(ctx, buyer, c.Param("id"))
	if err != nil {
		he := orderHTTPError(err)
		l.Warn("confirm_payment_error", "status", he.Code, "error", err)
		return he
	}

	l.Info("confirm_payment_success", "order_id", c.Param("id"))
	return c.JSON(http.StatusOK, transport.ConfirmPaymentResponse{TransactionID: txnID})
}
