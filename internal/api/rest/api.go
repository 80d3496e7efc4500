package rest

import (
	"net/http"

	"github.com/CameronXie/order-management/internal/api/rest/handlers"
	"github.com/CameronXie/order-management/internal/api/rest/middlewares"
)

type RouterConfig struct {
	HealthHandler  http.Handler
	MetricsHandler http.Handler
	OrderHandler   *handlers.OrderHandler
	ProductHandler *handlers.ProductHandler
	ClientHandler  *handlers.ClientHandler
	Middlewares    []middlewares.Middleware
}

// NewMuxWithHandlers initializes a new HTTP mux with routes defined by the given RouterConfig.
func NewMuxWithHandlers(cfg *RouterConfig) http.Handler {
	router := http.NewServeMux()

	router.Handle("GET /health", cfg.HealthHandler)
	router.Handle("GET /metrics", cfg.MetricsHandler)

	router.HandleFunc("POST /api/v1/orders", cfg.OrderHandler.CreateOrder)
	router.HandleFunc("GET /api/v1/orders", cfg.OrderHandler.ListOrders)
	router.HandleFunc("GET /api/v1/orders/{id}", cfg.OrderHandler.GetOrder)
	router.HandleFunc("PUT /api/v1/orders/{id}", cfg.OrderHandler.UpdateOrder)
	router.HandleFunc("DELETE /api/v1/orders/{id}", cfg.OrderHandler.DeleteOrder)

	router.HandleFunc("POST /api/v1/products", cfg.ProductHandler.CreateProduct)
	router.HandleFunc("GET /api/v1/products", cfg.ProductHandler.ListProducts)
	router.HandleFunc("GET /api/v1/products/{id}", cfg.ProductHandler.GetProduct)
	router.HandleFunc("PUT /api/v1/products/{id}", cfg.ProductHandler.UpdateProduct)
	router.HandleFunc("DELETE /api/v1/products/{id}", cfg.ProductHandler.DeleteProduct)

	router.HandleFunc("POST /api/v1/clients", cfg.ClientHandler.CreateClient)
	router.HandleFunc("GET /api/v1/clients", cfg.ClientHandler.ListClients)
	router.HandleFunc("GET /api/v1/clients/{id}", cfg.ClientHandler.GetClient)
	router.HandleFunc("PUT /api/v1/clients/{id}", cfg.ClientHandler.UpdateClient)
	router.HandleFunc("DELETE /api/v1/clients/{id}", cfg.ClientHandler.DeleteClient)

	return middlewares.Chain(router, cfg.Middlewares...)
}
