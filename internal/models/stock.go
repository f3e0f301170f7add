package models

// Stock is the quantity of a product available for purchase.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}
