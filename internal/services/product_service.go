package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

// ProductServiceDeps wires the catalogue service dependencies.
type ProductServiceDeps struct {
	Products   repositories.ProductRepository
	Categories repositories.CategoryRepository
	Clock      func() time.Time
	IDGen      func() string
	Logger     *zap.Logger
}

type productService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	clock      func() time.Time
	idGen      func() string
	logger     *zap.Logger
	sanitizer  *bluemonday.Policy
}

// NewProductService constructs the catalogue service.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Products == nil {
		return nil, errors.New("product service requires product repository")
	}
	if deps.Categories == nil {
		return nil, errors.New("product service requires category repository")
	}
	svc := &productService{
		products:   deps.Products,
		categories: deps.Categories,
		clock:      deps.Clock,
		idGen:      deps.IDGen,
		logger:     deps.Logger,
		sanitizer:  bluemonday.StrictPolicy(),
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.idGen == nil {
		svc.idGen = defaultIDGenerator
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

func (s *productService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	if cmd.Actor.Role != domain.RoleProvider {
		return domain.Product{}, fmt.Errorf("%w: only providers create products", ErrForbidden)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrInvalidRequest)
	}
	if cmd.Price <= 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
	}
	if cmd.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrInvalidRequest)
	}
	if strings.TrimSpace(cmd.CategoryID) == "" {
		return domain.Product{}, fmt.Errorf("%w: category id is required", ErrInvalidRequest)
	}

	if _, err := s.categories.FindByID(ctx, cmd.CategoryID); err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	if err := s.checkNameUnique(ctx, cmd.Actor.ID, name, ""); err != nil {
		return domain.Product{}, err
	}

	now := s.clock().UTC()
	product := domain.Product{
		ID:          productIDPrefix + s.idGen(),
		Name:        name,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Description: s.sanitizer.Sanitize(cmd.Description),
		BigImg:      cmd.BigImg,
		ProviderID:  cmd.Actor.ID,
		CategoryID:  cmd.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	if cmd.Actor.Role != domain.RoleAdmin && product.ProviderID != cmd.Actor.ID {
		return domain.Product{}, fmt.Errorf("%w: product belongs to another provider", ErrForbidden)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name is required", ErrInvalidRequest)
		}
		if name != product.Name {
			if err := s.checkNameUnique(ctx, product.ProviderID, name, product.ID); err != nil {
				return domain.Product{}, err
			}
			product.Name = name
		}
	}
	if cmd.Price != nil {
		if *cmd.Price <= 0 {
			return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
		}
		product.Price = *cmd.Price
	}
	if cmd.Description != nil {
		product.Description = s.sanitizer.Sanitize(*cmd.Description)
	}
	if cmd.BigImg != nil {
		product.BigImg = *cmd.BigImg
	}
	if cmd.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *cmd.CategoryID); err != nil {
			return domain.Product{}, mapRepositoryError(err)
		}
		product.CategoryID = *cmd.CategoryID
	}
	product.UpdatedAt = s.clock().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, actor Actor, productID string) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if actor.Role != domain.RoleAdmin && product.ProviderID != actor.ID {
		return fmt.Errorf("%w: product belongs to another provider", ErrForbidden)
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func (s *productService) FindProduct(ctx context.Context, productID string) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return product, nil
}

func (s *productService) ListByProvider(ctx context.Context, providerID string, sort domain.ProductSort, page int) (Listing[domain.Product], error) {
	return s.list(ctx, repositories.ProductListFilter{ProviderID: providerID, Sort: sort}, page)
}

func (s *productService) ListByCategory(ctx context.Context, categoryID string, sort domain.ProductSort, page int) (Listing[domain.Product], error) {
	return s.list(ctx, repositories.ProductListFilter{CategoryID: categoryID, Sort: sort}, page)
}

// Search matches products whose name starts with the query.
func (s *productService) Search(ctx context.Context, query string, sort domain.ProductSort, page int) (Listing[domain.Product], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Listing[domain.Product]{}, fmt.Errorf("%w: search query is required", ErrInvalidRequest)
	}
	return s.list(ctx, repositories.ProductListFilter{NameQuery: query, Sort: sort}, page)
}

func (s *productService) list(ctx context.Context, filter repositories.ProductListFilter, page int) (Listing[domain.Product], error) {
	page = normalisePage(page)
	if filter.Sort == "" {
		filter.Sort = domain.ProductSortCreatedDesc
	}
	filter.Offset = (page - 1) * defaultPageSize
	filter.Limit = defaultPageSize

	result, err := s.products.List(ctx, filter)
	if err != nil {
		return Listing[domain.Product]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, defaultPageSize), nil
}

// checkNameUnique rejects a second product with the same name under one
// provider. excludeID skips the product being renamed.
func (s *productService) checkNameUnique(ctx context.Context, providerID, name, excludeID string) error {
	result, err := s.products.List(ctx, repositories.ProductListFilter{
		ProviderID: providerID,
		NameQuery:  name,
		Limit:      defaultPageSize,
	})
	if err != nil {
		return mapRepositoryError(err)
	}
	for _, existing := range result.Items {
		if existing.Name == name && existing.ID != excludeID {
			return fmt.Errorf("%w: product name already in use", ErrConflict)
		}
	}
	return nil
}
