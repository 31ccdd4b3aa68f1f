package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/seoulmarket/api/internal/domain"
	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
	"github.com/seoulmarket/api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	Name        string    `firestore:"name"`
	Price       int64     `firestore:"price"`
	Stock       int       `firestore:"stock"`
	Description string    `firestore:"description,omitempty"`
	BigImg      string    `firestore:"bigImg,omitempty"`
	ProviderID  string    `firestore:"providerId"`
	CategoryID  string    `firestore:"categoryId,omitempty"`
	AvgRating   float64   `firestore:"avgRating"`
	ReviewCount int       `firestore:"reviewCount"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// ProductRepository persists the catalogue and performs every stock mutation
// inside a Firestore transaction so concurrent reservations serialise.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil),
	}, nil
}

// Insert creates the product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product id is required")
	}

	ref, err := r.base.DocumentRef(ctx, product.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainProduct(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update replaces the product document. Stock is written as-is; callers must
// not route stock changes through Update.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Set(ctx, product.ID, fromDomainProduct(product))
}

// Delete removes the product, failing when it does not exist.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Delete(ctx, productID, firestore.Exists)
}

// FindByID loads the product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(doc.ID, doc.Data), nil
}

// List returns one page of products matching the filter plus the total count.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Product]{}, errors.New("product repository not initialised")
	}

	match := productFilterQuery(filter)

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = match(q)
		q = productSortQuery(q, filter)
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, toDomainProduct(doc.ID, doc.Data))
	}
	return domain.Page[domain.Product]{Items: products, Total: total}, nil
}

// ReserveStock atomically decrements stock by quantity inside one transaction
// and returns the product details frozen at that instant.
func (r *ProductRepository) ReserveStock(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
	if r == nil || r.provider == nil {
		return repositories.ReservedLine{}, errors.New("product repository not initialised")
	}
	if quantity <= 0 {
		return repositories.ReservedLine{}, fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	var line repositories.ReservedLine
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc productDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore products decode %s: %w", productID, err)
		}

		if doc.Stock < quantity {
			return &repositories.InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: doc.Stock,
			}
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: doc.Stock - quantity},
			{Path: "updatedAt", Value: time.Now().UTC()},
		}); err != nil {
			return err
		}

		line = repositories.ReservedLine{
			ProductID:   productID,
			ProductName: doc.Name,
			ProviderID:  doc.ProviderID,
			UnitPrice:   doc.Price,
			Quantity:    quantity,
		}
		return nil
	})
	if err != nil {
		var insufficient *repositories.InsufficientStockError
		if errors.As(err, &insufficient) {
			return repositories.ReservedLine{}, insufficient
		}
		return repositories.ReservedLine{}, pfirestore.WrapError("products.reserve", err)
	}
	return line, nil
}

// ReleaseStock atomically returns quantity units to the product's stock.
func (r *ProductRepository) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc productDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore products decode %s: %w", productID, err)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: doc.Stock + quantity},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return pfirestore.WrapError("products.release", err)
	}
	return nil
}

// UpdateRating replaces the running review aggregate on the product.
func (r *ProductRepository) UpdateRating(ctx context.Context, productID string, avgRating float64, reviewCount int) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Update(ctx, productID, []firestore.Update{
		{Path: "avgRating", Value: avgRating},
		{Path: "reviewCount", Value: reviewCount},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}

func productFilterQuery(filter repositories.ProductListFilter) pfirestore.QueryBuilder {
	return func(q firestore.Query) firestore.Query {
		if filter.ProviderID != "" {
			q = q.Where("providerId", "==", filter.ProviderID)
		}
		if filter.CategoryID != "" {
			q = q.Where("categoryId", "==", filter.CategoryID)
		}
		if name := strings.TrimSpace(filter.NameQuery); name != "" {
			q = q.Where("name", ">=", name).Where("name", "<=", name+"\uf8ff")
		}
		return q
	}
}

func productSortQuery(q firestore.Query, filter repositories.ProductListFilter) firestore.Query {
	// A name range filter forces the first ordering onto the name field.
	if strings.TrimSpace(filter.NameQuery) != "" {
		q = q.OrderBy("name", firestore.Asc)
	}
	switch filter.Sort {
	case domain.ProductSortPriceAsc:
		return q.OrderBy("price", firestore.Asc)
	case domain.ProductSortPriceDesc:
		return q.OrderBy("price", firestore.Desc)
	default:
		return q.OrderBy("createdAt", firestore.Desc)
	}
}

func fromDomainProduct(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Price:       product.Price,
		Stock:       product.Stock,
		Description: product.Description,
		BigImg:      product.BigImg,
		ProviderID:  product.ProviderID,
		CategoryID:  product.CategoryID,
		AvgRating:   product.AvgRating,
		ReviewCount: product.ReviewCount,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toDomainProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        doc.Name,
		Price:       doc.Price,
		Stock:       doc.Stock,
		Description: doc.Description,
		BigImg:      doc.BigImg,
		ProviderID:  doc.ProviderID,
		CategoryID:  doc.CategoryID,
		AvgRating:   doc.AvgRating,
		ReviewCount: doc.ReviewCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
