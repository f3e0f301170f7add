package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rogerio-castellano/cart-store/internal/http/handlers"
	mw "github.com/rogerio-castellano/cart-store/internal/http/middleware"
	"github.com/rogerio-castellano/cart-store/internal/session"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewCartRouter serves the shopper-facing cart API. limiter may be nil.
func NewCartRouter(h *handlers.CartHandler, issuer *session.Issuer, limiter *mw.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	mount(r)
	r.Post("/session", h.CreateSession)

	r.Route("/cart", func(r chi.Router) {
		r.Use(mw.Session(issuer))
		r.Get("/", h.GetCart)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Delete("/", h.ClearCart)
			r.Post("/reconcile", h.Reconcile)
			r.Post("/products/{id}", h.AddProduct)
			r.Put("/products/{id}", h.UpdateProductAmount)
			r.Delete("/products/{id}", h.RemoveProduct)
		})
	})
	return r
}

// NewCatalogRouter serves products and stock from the repository set with
// handlers.SetInventoryRepo.
func NewCatalogRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	mount(r)
	r.Get("/products", handlers.GetProductsHandler)
	r.Post("/products", handlers.CreateProductHandler)
	r.Post("/products/import", handlers.ImportProductsHandler)
	r.Get("/products/{id}", handlers.GetProductByIDHandler)
	r.Get("/stock/{id}", handlers.GetStockHandler)
	r.Put("/stock/{id}", handlers.SetStockHandler)
	return r
}

func mount(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
