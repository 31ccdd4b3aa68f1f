package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seoulmarket/api/internal/repositories"
)

// InventoryServiceDeps wires the stock ledger.
type InventoryServiceDeps struct {
	Products repositories.ProductRepository
	Logger   *zap.Logger
}

type inventoryService struct {
	products repositories.ProductRepository
	logger   *zap.Logger
}

// NewInventoryService constructs the stock ledger over the product repository.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Products == nil {
		return nil, errors.New("inventory service requires product repository")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		products: deps.Products,
		logger:   logger,
	}, nil
}

func (s *inventoryService) Reserve(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
	if strings.TrimSpace(productID) == "" {
		return repositories.ReservedLine{}, fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if quantity <= 0 {
		return repositories.ReservedLine{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	line, err := s.products.ReserveStock(ctx, productID, quantity)
	if err != nil {
		var stockErr *repositories.InsufficientStockError
		if errors.As(err, &stockErr) {
			return repositories.ReservedLine{}, fmt.Errorf("%w: product %s has %d, requested %d",
				ErrInsufficientStock, stockErr.ProductID, stockErr.Available, stockErr.Requested)
		}
		return repositories.ReservedLine{}, mapRepositoryError(err)
	}
	return line, nil
}

func (s *inventoryService) Release(ctx context.Context, productID string, quantity int) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	if err := s.products.ReleaseStock(ctx, productID, quantity); err != nil {
		contextLogger(ctx, s.logger).Error("release stock failed",
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return mapRepositoryError(err)
	}
	return nil
}
