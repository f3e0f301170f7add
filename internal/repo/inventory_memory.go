package repo

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/cart-store/internal/models"
)

// InMemoryInventoryRepository is an in-memory implementation of InventoryRepository.
type InMemoryInventoryRepository struct {
	mu     sync.RWMutex
	items  []models.InventoryItem
	nextID int
}

// NewInMemoryInventoryRepository creates a new instance of InMemoryInventoryRepository.
func NewInMemoryInventoryRepository() *InMemoryInventoryRepository {
	return &InMemoryInventoryRepository{
		items:  []models.InventoryItem{},
		nextID: 1,
	}
}

// Create adds a new item and assigns its ID.
func (r *InMemoryInventoryRepository) Create(item models.InventoryItem) (models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.Quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	for _, existing := range r.items {
		if strings.EqualFold(existing.Name, item.Name) {
			return models.InventoryItem{}, ErrDuplicatedName
		}
	}
	item.ID = r.nextID
	r.nextID++
	r.items = append(r.items, item)
	return item, nil
}

// GetAll returns every item ordered by ID.
func (r *InMemoryInventoryRepository) GetAll() ([]models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items), nil
}

// GetByID retrieves an item by its ID.
func (r *InMemoryInventoryRepository) GetByID(id int) (models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.InventoryItem{}, ErrProductNotFound
}

func (r *InMemoryInventoryRepository) GetByName(name string) (models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	return models.InventoryItem{}, ErrProductNotFound
}

// Update replaces the stored item with the same ID.
func (r *InMemoryInventoryRepository) Update(item models.InventoryItem) (models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.Quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	for i, it := range r.items {
		if it.ID == item.ID {
			item.CreatedAt = it.CreatedAt
			r.items[i] = item
			return item, nil
		}
	}
	return models.InventoryItem{}, ErrProductNotFound
}

// SetQuantity overwrites the stock of an item.
func (r *InMemoryInventoryRepository) SetQuantity(id int, quantity int) (models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	for i, it := range r.items {
		if it.ID == id {
			r.items[i].Quantity = quantity
			r.items[i].UpdatedAt = time.Now().Format(time.RFC3339)
			return r.items[i], nil
		}
	}
	return models.InventoryItem{}, ErrProductNotFound
}
