package repositories

import (
	"context"

	"github.com/seoulmarket/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Users() UserRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Refunds() RefundRepository
	Reviews() ReviewRepository
	Likes() LikeRepository
	Counters() CounterRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists account profiles.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// CategoryRepository persists product categories.
type CategoryRepository interface {
	Insert(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID string) error
	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ProductListFilter narrows and orders product listings.
type ProductListFilter struct {
	ProviderID string
	CategoryID string
	NameQuery  string
	Sort       domain.ProductSort
	Offset     int
	Limit      int
}

// ProductRepository manages the catalogue and owns every stock mutation.
//
// ReserveStock and ReleaseStock are the only operations that change stock and
// each executes as a single atomic read-modify-write: two concurrent
// reservations can never both observe the pre-decrement count.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error)

	// ReserveStock decrements stock by quantity, failing with a conflict
	// error when the remaining stock is insufficient. It returns the product
	// name and unit price captured at the moment of reservation.
	ReserveStock(ctx context.Context, productID string, quantity int) (ReservedLine, error)
	// ReleaseStock returns quantity units to stock.
	ReleaseStock(ctx context.Context, productID string, quantity int) error

	// UpdateRating replaces the running review aggregate on the product.
	UpdateRating(ctx context.Context, productID string, avgRating float64, reviewCount int) error
}

// ReservedLine captures the product details frozen at reservation time.
type ReservedLine struct {
	ProductID   string
	ProductName string
	ProviderID  string
	UnitPrice   int64
	Quantity    int
}

// InsufficientStockError is returned by ReserveStock when the remaining
// stock cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return "insufficient stock for product " + e.ProductID
}

// OrderListFilter pages consumer order history.
type OrderListFilter struct {
	ConsumerID string
	Offset     int
	Limit      int
}

// OrderRepository persists order aggregates.
type OrderRepository interface {
	// Insert writes the order and all of its items in one transactional batch.
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByConsumer(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
}

// OrderItemListFilter selects a provider's order items by status set.
type OrderItemListFilter struct {
	ProviderID string
	Statuses   []domain.OrderItemStatus
	SortOrder  domain.SortOrder
	Offset     int
	Limit      int
}

// OrderItemRepository reads and transitions individual order items.
type OrderItemRepository interface {
	FindByID(ctx context.Context, orderItemID string) (domain.OrderItem, error)
	UpdateStatus(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error
	ListByProvider(ctx context.Context, filter OrderItemListFilter) (domain.Page[domain.OrderItem], error)
	// HasPurchase reports whether the consumer has any order item for the
	// product, used to gate reviews to actual buyers.
	HasPurchase(ctx context.Context, consumerID, productID string) (bool, error)
}

// RefundListFilter pages refund records for one refundee.
type RefundListFilter struct {
	RefundeeID string
	Offset     int
	Limit      int
}

// RefundRepository persists refund and exchange records.
type RefundRepository interface {
	Insert(ctx context.Context, refund domain.Refund) error
	// Delete removes a refund record, used to compensate when the paired
	// order item transition fails after the refund row was written.
	Delete(ctx context.Context, refundID string) error
	FindByID(ctx context.Context, refundID string) (domain.Refund, error)
	ListByRefundee(ctx context.Context, filter RefundListFilter) (domain.Page[domain.Refund], error)
}

// ReviewListFilter pages reviews for one product or one commenter.
type ReviewListFilter struct {
	ProductID   string
	CommenterID string
	Offset      int
	Limit       int
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Insert(ctx context.Context, review domain.Review) error
	Update(ctx context.Context, review domain.Review) error
	Delete(ctx context.Context, reviewID string) error
	FindByID(ctx context.Context, reviewID string) (domain.Review, error)
	ListByProduct(ctx context.Context, filter ReviewListFilter) (domain.Page[domain.Review], error)
	ListByCommenter(ctx context.Context, filter ReviewListFilter) (domain.Page[domain.Review], error)
}

// LikeRepository persists the per-user liked product set.
type LikeRepository interface {
	Get(ctx context.Context, userID string) (domain.Like, error)
	Save(ctx context.Context, like domain.Like) error
}

// CounterRepository issues monotonically increasing sequence numbers, used
// for human-readable order numbers.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
