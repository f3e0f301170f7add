package handlers

import (
	repo "github.com/rogerio-castellano/cart-store/internal/repo"
	"go.uber.org/zap"
)

var (
	inventoryRepo repo.InventoryRepository
	logger        = zap.NewNop()
)

func SetInventoryRepo(r repo.InventoryRepository) {
	inventoryRepo = r
}

func SetLogger(l *zap.Logger) {
	logger = l
}
