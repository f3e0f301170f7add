package repo

import (
	"errors"

	"github.com/rogerio-castellano/cart-store/internal/models"
)

var (
	// ErrProductNotFound is returned when a product is not found in the repository.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuantity is returned when a stock quantity would go negative.
	ErrInvalidQuantity = errors.New("invalid stock quantity")
	// ErrDuplicatedName is returned when another product already uses the name.
	ErrDuplicatedName = errors.New("duplicated product name")
)

// InventoryRepository stores the catalog served to the cart.
type InventoryRepository interface {
	Create(item models.InventoryItem) (models.InventoryItem, error)
	GetAll() ([]models.InventoryItem, error)
	GetByID(id int) (models.InventoryItem, error)
	GetByName(name string) (models.InventoryItem, error)
	Update(item models.InventoryItem) (models.InventoryItem, error)
	SetQuantity(id int, quantity int) (models.InventoryItem, error)
}
