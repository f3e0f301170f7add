package models

// InventoryItem is the catalog-side record behind the product and stock endpoints.
type InventoryItem struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Title     string  `json:"title,omitempty"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Product projects the item into the record served by GET /products/{id}.
func (i InventoryItem) Product() Product {
	return Product{
		ID:    i.ID,
		Name:  i.Name,
		Title: i.Title,
		Price: i.Price,
		Image: i.Image,
	}
}

// Stock projects the item into the record served by GET /stock/{id}.
func (i InventoryItem) Stock() Stock {
	return Stock{ID: i.ID, Amount: i.Quantity}
}
