package handlers

import (
	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SessionResponse struct {
	Token string `json:"token"`
}

type AmountRequest struct {
	Amount int `json:"amount"`
}

type CartResponse struct {
	Items  []models.Product `json:"items"`
	Totals cart.Totals      `json:"totals"`
}

type ReconcileResponse struct {
	Adjustments []cart.Adjustment `json:"adjustments"`
	CartResponse
}

type ProductRequest struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

type StockRequest struct {
	Amount int `json:"amount"`
}

type ImportProductsResult struct {
	ImportedProductsCount int                      `json:"imported"`
	Errors                []ProductValidationError `json:"errors"`
}
