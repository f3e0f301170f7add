package cart

import (
	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/shopspring/decimal"
)

// Line is one cart entry with its subtotal.
type Line struct {
	ProductID int             `json:"product_id"`
	Amount    int             `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Totals summarizes a cart. Size counts distinct products, Units counts items.
type Totals struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Size  int             `json:"size"`
	Units int             `json:"units"`
}

// Summarize computes totals with decimal arithmetic so that sums of prices
// such as 0.1 + 0.2 come out exact.
func Summarize(items []models.Product) Totals {
	t := Totals{Lines: make([]Line, 0, len(items)), Total: decimal.Zero, Size: len(items)}
	for _, p := range items {
		price := decimal.NewFromFloat(p.Price)
		sub := price.Mul(decimal.NewFromInt(int64(p.Amount)))
		t.Lines = append(t.Lines, Line{ProductID: p.ID, Amount: p.Amount, Price: price, Subtotal: sub})
		t.Total = t.Total.Add(sub)
		t.Units += p.Amount
	}
	return t
}

// Totals summarizes the current cart.
func (s *Store) Totals() Totals {
	return Summarize(s.Cart())
}
