package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/middleware/auth"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	CartHandler    *CartHTTP
	CatalogHandler *CatalogHTTP
	AddressHandler *AddressHTTP
	SearchHandler  *SearchHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.GET("/search", d.SearchHandler.Search)

	skus := v1.Group("/skus")
	skus.GET("", d.CatalogHandler.ListSKUs)
	skus.GET("/:id", d.CatalogHandler.GetSKU)
	skus.POST("", d.CatalogHandler.CreateSKU)
	skus.PATCH("/:id", d.CatalogHandler.PatchSKU)
	skus.DELETE("/:id", d.CatalogHandler.DeleteSKU)

	authMW := auth.NewMiddleware(d.JWTSecret)

	cart := v1.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("", d.CartHandler.SetQuantity)
	cart.DELETE("/:sku_id", d.CartHandler.DeleteFromCart)

	addresses := v1.Group("/addresses", authMW.RequireAuth)
	addresses.GET("", d.AddressHandler.ListAddresses)
	addresses.POST("", d.AddressHandler.CreateAddress)

	orders := v1.Group("/orders", authMW.RequireAuth)
	orders.POST("/checkout", d.OrderHandler.Checkout)
	orders.POST("", d.OrderHandler.CommitOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/comments", d.OrderHandler.Comment)
	orders.POST("/:id/pay", d.OrderHandler.PayOrder)
	orders.POST("/:id/pay/confirm", d.OrderHandler.ConfirmPayment)
}
