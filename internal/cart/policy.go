package cart

import (
	"fmt"
	"strings"
)

// ZeroPolicy decides what UpdateProductAmount does with amount <= 0.
type ZeroPolicy int

const (
	// RejectNonPositive fails with ErrInvalidAmount.
	RejectNonPositive ZeroPolicy = iota
	// RemoveOnZero removes the line for amount 0. Negative amounts are still rejected.
	RemoveOnZero
)

// OverStockPolicy decides what UpdateProductAmount does when amount > stock.
type OverStockPolicy int

const (
	// RejectOverStock fails with ErrOutOfStock.
	RejectOverStock OverStockPolicy = iota
	// ClampToStock lowers the amount to the stock. Zero stock removes the line.
	ClampToStock
)

// Policy groups the amount rules for UpdateProductAmount.
type Policy struct {
	Zero      ZeroPolicy
	OverStock OverStockPolicy
}

func ParseZeroPolicy(s string) (ZeroPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectNonPositive, nil
	case "remove":
		return RemoveOnZero, nil
	}
	return 0, fmt.Errorf("unknown zero amount policy %q (want reject|remove)", s)
}

func ParseOverStockPolicy(s string) (OverStockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectOverStock, nil
	case "clamp":
		return ClampToStock, nil
	}
	return 0, fmt.Errorf("unknown over-stock policy %q (want reject|clamp)", s)
}
