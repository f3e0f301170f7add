package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	models "github.com/rogerio-castellano/cart-store/internal/models"
	repo "github.com/rogerio-castellano/cart-store/internal/repo"
	"go.uber.org/zap"
)

// CreateProductHandler godoc
// @Summary Create a new product
// @Description Adds a product and its initial stock to the catalog
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} models.InventoryItem
// @Failure 400 {object} []ProductValidationError
// @Failure 409 {string} string "Duplicated name"
// @Router /products [post]
func CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateProduct(req)
	if len(validationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	now := time.Now().Format(time.RFC3339)
	created, err := inventoryRepo.Create(models.InventoryItem{
		Name:      req.Name,
		Title:     req.Title,
		Price:     req.Price,
		Image:     req.Image,
		Quantity:  req.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedName) {
			http.Error(w, "could not create product: product name duplicated", http.StatusConflict)
			return
		}
		logger.Error("create product", zap.Error(err))
		http.Error(w, "could not create product", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetProductsHandler godoc
// @Summary List all products
// @Tags products
// @Produce json
// @Success 200 {array} models.Product
// @Failure 500 {string} string "Internal error"
// @Router /products [get]
func GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := inventoryRepo.GetAll()
	if err != nil {
		logger.Error("list products", zap.Error(err))
		http.Error(w, "could not fetch products", http.StatusInternalServerError)
		return
	}
	response := make([]models.Product, len(items))
	for i, it := range items {
		response[i] = it.Product()
	}
	writeJSON(w, http.StatusOK, response)
}

// GetProductByIDHandler godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [get]
func GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := lookupItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, item.Product())
}

// GetStockHandler godoc
// @Summary Get the available stock of a product
// @Tags stock
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Stock
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /stock/{id} [get]
func GetStockHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := lookupItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, item.Stock())
}

// SetStockHandler godoc
// @Summary Set the available stock of a product
// @Tags stock
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param stock body StockRequest true "New amount"
// @Success 200 {object} models.Stock
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /stock/{id} [put]
func SetStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req StockRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	item, err := inventoryRepo.SetQuantity(id, req.Amount)
	switch {
	case errors.Is(err, repo.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrInvalidQuantity):
		http.Error(w, "amount cannot be negative", http.StatusBadRequest)
		return
	case err != nil:
		logger.Error("set stock", zap.Int("product_id", id), zap.Error(err))
		http.Error(w, "could not update stock", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item.Stock())
}

func lookupItem(w http.ResponseWriter, r *http.Request) (models.InventoryItem, bool) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return models.InventoryItem{}, false
	}

	item, err := inventoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return models.InventoryItem{}, false
		}
		logger.Error("get product", zap.Int("product_id", id), zap.Error(err))
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return models.InventoryItem{}, false
	}
	return item, true
}
