package service

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/freshmart/storefront/internal/cart"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/transport"
)

type testEnv struct {
	svc    *OrderService
	db     *gorm.DB
	cart   *cart.MemoryStore
	events *eventRecorder
	buyer  uuid.UUID
	addr   uuid.UUID
}

type eventRecorder struct {
	events []map[string]any
}

func (r *eventRecorder) PublishEvent(_ context.Context, _, _ string, event interface{}) error {
	r.events = append(r.events, event.(map[string]any))
	return nil
}

func (r *eventRecorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e["type"].(string))
	}
	return out
}

// newTestEnv wires the service against an in-memory sqlite database. sqlite
// cannot parse SELECT ... FOR UPDATE, so everything here runs the optimistic
// strategy; the locking strategy is covered by the reserve package tests.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.SKU{}, &models.Address{}, &models.Order{}, &models.OrderLine{}))

	store := cart.NewMemoryStore()
	events := &eventRecorder{}
	buyer := uuid.New()

	addr := &models.Address{BuyerID: buyer, Receiver: "Sam Hill", Addr: "12 Orchard Rd", Zip: "90210", Phone: "555-0187"}
	require.NoError(t, db.Create(addr).Error)

	return &testEnv{
		svc: &OrderService{
			DB:          db,
			Catalog:     &repo.CatalogRepo{DB: db},
			Orders:      &repo.OrderRepo{DB: db},
			Addresses:   &repo.AddressRepo{DB: db},
			Cart:        store,
			Strategy:    reserve.Optimistic{},
			ShippingFee: decimal.NewFromInt(10),
			Events:      events,
		},
		db:     db,
		cart:   store,
		events: events,
		buyer:  buyer,
		addr:   addr.ID,
	}
}

func (e *testEnv) seedSKU(t *testing.T, name, price string, stock uint) *models.SKU {
	t.Helper()
	sku := &models.SKU{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, e.db.Create(sku).Error)
	return sku
}

func (e *testEnv) carted(t *testing.T, skuID uuid.UUID, qty uint) {
	t.Helper()
	require.NoError(t, e.cart.Set(context.Background(), e.buyer, skuID, qty))
}

func (e *testEnv) reloadSKU(t *testing.T, skuID uuid.UUID) *models.SKU {
	t.Helper()
	sku, err := e.svc.Catalog.Get(context.Background(), skuID)
	require.NoError(t, err)
	return sku
}

func (e *testEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func decimalEqual(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(got),
		"expected %s, got %s", expected, got)
}

func TestCommitOrder_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sku := env.seedSKU(t, "oat milk", "12.50", 5)
	env.carted(t, sku.ID, 3)

	orderID, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	after := env.reloadSKU(t, sku.ID)
	assert.Equal(t, uint(2), after.Stock)
	assert.Equal(t, uint(3), after.Sales)

	order, err := env.svc.Orders.GetOwned(ctx, orderID, env.buyer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, order.Status)
	assert.Equal(t, uint(3), order.TotalCount)
	decimalEqual(t, "37.50", order.TotalPrice)
	decimalEqual(t, "10", order.ShippingFee)

	lines, err := env.svc.Orders.LinesOf(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, sku.ID, lines[0].SKUID)
	assert.Equal(t, uint(3), lines[0].Quantity)
	decimalEqual(t, "12.50", lines[0].Price)

	qty, err := env.cart.Quantity(ctx, env.buyer, sku.ID)
	require.NoError(t, err)
	assert.Zero(t, qty, "committed skus leave the cart")

	assert.Equal(t, []string{"order_created"}, env.events.types())
}

func TestCommitOrder_MultiSKUAggregates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedSKU(t, "rye bread", "3.20", 10)
	b := env.seedSKU(t, "butter", "4.75", 10)
	env.carted(t, a.ID, 2)
	env.carted(t, b.ID, 4)

	// Duplicate ids in the request collapse to one line each.
	orderID, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayCashOnDelivery,
		[]uuid.UUID{a.ID, b.ID, a.ID})
	require.NoError(t, err)

	order, err := env.svc.Orders.GetOwned(ctx, orderID, env.buyer)
	require.NoError(t, err)
	assert.Equal(t, uint(6), order.TotalCount)
	decimalEqual(t, "25.40", order.TotalPrice) // 2*3.20 + 4*4.75

	lines, err := env.svc.Orders.LinesOf(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestCommitOrder_InsufficientStock(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sku := env.seedSKU(t, "eggs", "6.00", 2)
	env.carted(t, sku.ID, 3)

	_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
	require.ErrorIs(t, err, reserve.ErrInsufficientStock)

	assert.Zero(t, env.countRows(t, &models.Order{}), "failed commit writes no order")
	assert.Zero(t, env.countRows(t, &models.OrderLine{}))
	assert.Equal(t, uint(2), env.reloadSKU(t, sku.ID).Stock)

	qty, err := env.cart.Quantity(ctx, env.buyer, sku.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), qty, "failed commit leaves the cart alone")
	assert.Empty(t, env.events.types())
}

func TestCommitOrder_AtomicAcrossSKUs(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	good := env.seedSKU(t, "coffee", "9.90", 8)
	phantom := uuid.New() // carted but never in the catalog
	env.carted(t, good.ID, 2)
	env.carted(t, phantom, 1)

	_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway,
		[]uuid.UUID{good.ID, phantom})
	require.ErrorIs(t, err, reserve.ErrSKUNotFound)

	assert.Zero(t, env.countRows(t, &models.Order{}))
	assert.Zero(t, env.countRows(t, &models.OrderLine{}))
	assert.Equal(t, uint(8), env.reloadSKU(t, good.ID).Stock,
		"a failing sibling sku rolls back every reservation")
}

func TestCommitOrder_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	sku := env.seedSKU(t, "tea", "2.00", 5)
	env.carted(t, sku.ID, 1)

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := env.svc.CommitOrder(ctx, uuid.Nil, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing address", func(t *testing.T) {
		_, err := env.svc.CommitOrder(ctx, env.buyer, uuid.Nil, models.PayGateway, []uuid.UUID{sku.ID})
		require.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("empty sku list", func(t *testing.T) {
		_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, nil)
		require.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("unknown pay method", func(t *testing.T) {
		_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayMethod(9), []uuid.UUID{sku.ID})
		require.ErrorIs(t, err, ErrInvalidPayMethod)
	})

	t.Run("address owned by someone else", func(t *testing.T) {
		stranger := &models.Address{BuyerID: uuid.New(), Receiver: "n", Addr: "a"}
		require.NoError(t, env.db.Create(stranger).Error)
		_, err := env.svc.CommitOrder(ctx, env.buyer, stranger.ID, models.PayGateway, []uuid.UUID{sku.ID})
		require.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("sku not in cart", func(t *testing.T) {
		uncarted := env.seedSKU(t, "salt", "1.00", 5)
		_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{uncarted.ID})
		require.ErrorIs(t, err, ErrCommit)
	})

	// The validation failures above must leave no trace.
	assert.Zero(t, env.countRows(t, &models.Order{}))
	assert.Equal(t, uint(5), env.reloadSKU(t, sku.ID).Stock)
}

// brokenCart errors on every access, so any call before validation passes
// would surface as the wrong error class.
type brokenCart struct{}

var errCartDown = errors.New("cart store unreachable")

func (brokenCart) Quantity(context.Context, uuid.UUID, uuid.UUID) (uint, error) {
	return 0, errCartDown
}
func (brokenCart) All(context.Context, uuid.UUID) (map[uuid.UUID]uint, error) {
	return nil, errCartDown
}
func (brokenCart) Set(context.Context, uuid.UUID, uuid.UUID, uint) error  { return errCartDown }
func (brokenCart) Add(context.Context, uuid.UUID, uuid.UUID, uint) error  { return errCartDown }
func (brokenCart) DeleteMany(context.Context, uuid.UUID, []uuid.UUID) error {
	return errCartDown
}

func TestCommitOrder_ValidatesBeforeStoreAccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.svc.Cart = brokenCart{}
	ctx := context.Background()

	_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayMethod(9), []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, ErrInvalidPayMethod, "pay method is rejected before the cart is consulted")

	_, err = env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, errCartDown, "a valid request does reach the cart")
}

func TestCommitOrder_SecondCommitOfSameCartLineFails(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sku := env.seedSKU(t, "flour", "2.30", 10)
	env.carted(t, sku.ID, 2)

	_, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
	require.NoError(t, err)

	// The cart line is gone, so replaying the same request cannot double-buy.
	_, err = env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
	require.ErrorIs(t, err, ErrCommit)
	assert.Equal(t, uint(8), env.reloadSKU(t, sku.ID).Stock)
}

func TestCheckout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedSKU(t, "apples", "1.10", 20)
	b := env.seedSKU(t, "pears", "2.00", 20)
	uncarted := env.seedSKU(t, "plums", "3.00", 20)
	env.carted(t, a.ID, 5)
	env.carted(t, b.ID, 1)

	page, err := env.svc.Checkout(ctx, env.buyer, []uuid.UUID{a.ID, b.ID, uncarted.ID})
	require.NoError(t, err)
	require.Len(t, page.Lines, 2, "skus without a cart line are skipped")
	assert.Equal(t, uint(6), page.TotalCount)
	decimalEqual(t, "7.50", page.TotalPrice) // 5*1.10 + 1*2.00
	decimalEqual(t, "10", page.ShippingFee)
	decimalEqual(t, "17.50", page.Payable)

	for _, line := range page.Lines {
		expected := line.SKU.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		assert.True(t, expected.Equal(line.Subtotal))
	}

	// Previewing must not reserve anything or touch the cart.
	assert.Equal(t, uint(20), env.reloadSKU(t, a.ID).Stock)
	qty, err := env.cart.Quantity(ctx, env.buyer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), qty)

	t.Run("nothing carted", func(t *testing.T) {
		_, err := env.svc.Checkout(ctx, env.buyer, []uuid.UUID{uncarted.ID})
		require.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := env.svc.Checkout(ctx, env.buyer, nil)
		require.ErrorIs(t, err, ErrMissingParameter)
	})
}

func TestListAndGetOrders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sku := env.seedSKU(t, "granola", "5.25", 50)
	env.carted(t, sku.ID, 2)
	first, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayGateway, []uuid.UUID{sku.ID})
	require.NoError(t, err)
	env.carted(t, sku.ID, 1)
	second, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayCashOnDelivery, []uuid.UUID{sku.ID})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	history, err := env.svc.ListOrders(ctx, env.buyer, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, history.Total)
	require.Len(t, history.Orders, 2)
	for _, view := range history.Orders {
		assert.Equal(t, "awaiting payment", view.StatusName)
		require.Len(t, view.Lines, 1)
		expected := view.Lines[0].Price.Mul(decimal.NewFromInt(int64(view.Lines[0].Quantity)))
		assert.True(t, expected.Equal(view.Lines[0].Subtotal))
	}

	view, err := env.svc.GetOrder(ctx, env.buyer, first)
	require.NoError(t, err)
	assert.Equal(t, first, view.ID)

	t.Run("foreign order is invisible", func(t *testing.T) {
		_, err := env.svc.GetOrder(ctx, uuid.New(), first)
		require.ErrorIs(t, err, repo.ErrOrderNotFound)
	})

	t.Run("other buyers see nothing", func(t *testing.T) {
		history, err := env.svc.ListOrders(ctx, uuid.New(), 0, 10)
		require.NoError(t, err)
		assert.Zero(t, history.Total)
	})
}

func TestSubmitComments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sku := env.seedSKU(t, "yoghurt", "1.80", 10)
	env.carted(t, sku.ID, 2)
	orderID, err := env.svc.CommitOrder(ctx, env.buyer, env.addr, models.PayCashOnDelivery, []uuid.UUID{sku.ID})
	require.NoError(t, err)

	err = env.svc.SubmitComments(ctx, env.buyer, orderID, []transport.LineComment{
		{SKUID: sku.ID, Comment: "fresh, would order again"},
		{SKUID: uuid.New(), Comment: "not part of this order"},
		{SKUID: sku.ID, Comment: ""}, // empty comments are ignored
	})
	require.NoError(t, err)

	order, err := env.svc.Orders.GetOwned(ctx, orderID, env.buyer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, order.Status)

	lines, err := env.svc.Orders.LinesOf(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "fresh, would order again", lines[0].Comment)

	assert.Equal(t, []string{"order_created", "order_completed"}, env.events.types())

	t.Run("foreign order", func(t *testing.T) {
		err := env.svc.SubmitComments(ctx, uuid.New(), orderID, nil)
		require.ErrorIs(t, err, repo.ErrOrderNotFound)
	})
}
