package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayMethod int

const (
	PayCashOnDelivery PayMethod = 1
	PayBankTransfer   PayMethod = 2
	PayGateway        PayMethod = 3
	PayWireTransfer   PayMethod = 4
)

var PayMethodNames = map[PayMethod]string{
	PayCashOnDelivery: "cash on delivery",
	PayBankTransfer:   "bank transfer",
	PayGateway:        "gateway pay",
	PayWireTransfer:   "wire transfer",
}

func (m PayMethod) Valid() bool {
	_, ok := PayMethodNames[m]
	return ok
}

type OrderStatus int

const (
	StatusUnpaid           OrderStatus = 1
	StatusAwaitingShipment OrderStatus = 2
	StatusShipped          OrderStatus = 3
	StatusAwaitingReview   OrderStatus = 4
	StatusComplete         OrderStatus = 5
	StatusCancelled        OrderStatus = 6
)

var OrderStatusNames = map[OrderStatus]string{
	StatusUnpaid:           "awaiting payment",
	StatusAwaitingShipment: "awaiting shipment",
	StatusShipped:          "shipped",
	StatusAwaitingReview:   "awaiting review",
	StatusComplete:         "complete",
	StatusCancelled:        "cancelled",
}

type SKU struct {
	ID          uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       uint            `gorm:"not null;default:0"          json:"stock"`
	Sales       uint            `gorm:"not null;default:0"          json:"sales"`
}

func (s *SKU) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (SKU) TableName() string {
	return "skus"
}

type Address struct {
	ID       uuid.UUID `gorm:"primaryKey"     json:"id"`
	BuyerID  uuid.UUID `gorm:"index;not null" json:"buyer_id"`
	Receiver string    `gorm:"not null"       json:"receiver"`
	Addr     string    `gorm:"not null"       json:"addr"`
	Zip      string    `json:"zip"`
	Phone    string    `json:"phone"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Order id is time-ordered and buyer-scoped (timestamp + buyer hex),
// assigned by the commit engine.
type Order struct {
	ID           string          `gorm:"primaryKey"                  json:"id"`
	BuyerID      uuid.UUID       `gorm:"index;not null"              json:"buyer_id"`
	AddressID    uuid.UUID       `gorm:"not null"                    json:"address_id"`
	PayMethod    PayMethod       `gorm:"not null"                    json:"pay_method"`
	Status       OrderStatus     `gorm:"not null"                    json:"status"`
	TotalCount   uint            `gorm:"not null;default:0"          json:"total_count"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	ShippingFee  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_fee"`
	GatewayTxnID string          `json:"gateway_txn_id,omitempty"`
	CreatedAt    time.Time       `gorm:"not null"                    json:"created_at"`
}

// Price is the unit price snapshotted at commit time; later SKU price
// changes never reach committed lines.
type OrderLine struct {
	ID       uint            `gorm:"primaryKey"                  json:"id"`
	OrderID  string          `gorm:"index;not null"              json:"order_id"`
	SKUID    uuid.UUID       `gorm:"column:sku_id;not null"      json:"sku_id"`
	Quantity uint            `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Comment  string          `json:"comment,omitempty"`
}
