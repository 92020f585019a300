package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshmart/storefront/internal/models"
)

type CommitOrderRequest struct {
	AddressID uuid.UUID   `json:"address_id"`
	PayMethod int         `json:"pay_method"`
	SKUIDs    []uuid.UUID `json:"sku_ids"`
}

type CommitOrderResponse struct {
	OrderID string `json:"order_id"`
}

type CheckoutRequest struct {
	SKUIDs []uuid.UUID `json:"sku_ids"`
}

// CheckoutLine joins the stored SKU with the carted quantity; the subtotal
// is computed here rather than bolted onto the model.
type CheckoutLine struct {
	SKU      models.SKU      `json:"sku"`
	Quantity uint            `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CheckoutPage struct {
	Lines       []CheckoutLine  `json:"lines"`
	TotalCount  uint            `json:"total_count"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Payable     decimal.Decimal `json:"payable"`
}

type OrderLineView struct {
	models.OrderLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

type OrderView struct {
	models.Order
	StatusName string          `json:"status_name"`
	Lines      []OrderLineView `json:"lines"`
}

type OrderHistory struct {
	Total  int64       `json:"total"`
	Orders []OrderView `json:"orders"`
}

type LineComment struct {
	SKUID   uuid.UUID `json:"sku_id"`
	Comment string    `json:"comment"`
}

type CommentRequest struct {
	Comments []LineComment `json:"comments"`
}

type PayOrderResponse struct {
	PayURL string `json:"pay_url"`
}

type ConfirmPaymentResponse struct {
	TransactionID string `json:"transaction_id"`
}

type AddToCartRequest struct {
	SKUID    uuid.UUID `json:"sku_id"`
	Quantity uint      `json:"quantity"`
}

type CreateAddressRequest struct {
	Receiver string `json:"receiver"`
	Addr     string `json:"addr"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}
