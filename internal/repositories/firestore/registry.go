package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
	"github.com/seoulmarket/api/internal/repositories"
)

// Registry bundles the Firestore-backed repository implementations.
type Registry struct {
	provider *pfirestore.Provider

	users      *UserRepository
	categories *CategoryRepository
	products   *ProductRepository
	orders     *OrderRepository
	orderItems *OrderItemRepository
	refunds    *RefundRepository
	reviews    *ReviewRepository
	likes      *LikeRepository
	counters   *CounterRepository
}

// NewRegistry wires every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	categories, err := NewCategoryRepository(provider)
	if err != nil {
		return nil, err
	}
	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	orderItems, err := NewOrderItemRepository(provider)
	if err != nil {
		return nil, err
	}
	refunds, err := NewRefundRepository(provider)
	if err != nil {
		return nil, err
	}
	reviews, err := NewReviewRepository(provider)
	if err != nil {
		return nil, err
	}
	likes, err := NewLikeRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:   provider,
		users:      users,
		categories: categories,
		products:   products,
		orders:     orders,
		orderItems: orderItems,
		refunds:    refunds,
		reviews:    reviews,
		likes:      likes,
		counters:   counters,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Users returns the user repository.
func (r *Registry) Users() repositories.UserRepository { return r.users }

// Categories returns the category repository.
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }

// Products returns the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// OrderItems returns the order item repository.
func (r *Registry) OrderItems() repositories.OrderItemRepository { return r.orderItems }

// Refunds returns the refund repository.
func (r *Registry) Refunds() repositories.RefundRepository { return r.refunds }

// Reviews returns the review repository.
func (r *Registry) Reviews() repositories.ReviewRepository { return r.reviews }

// Likes returns the like repository.
func (r *Registry) Likes() repositories.LikeRepository { return r.likes }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// RunInTx executes the callback sequentially. Cross-document writes that need
// transactional guarantees (order inserts, stock mutations) run inside their
// own Firestore transactions at the repository level, so the unit of work here
// only provides ordering.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction callback is required")
	}
	return fn(ctx)
}
