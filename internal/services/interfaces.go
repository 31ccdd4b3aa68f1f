package services

import (
	"context"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/pagination"
	"github.com/seoulmarket/api/internal/repositories"
)

// Pagination applied by the list operations.
const (
	defaultPageSize = 10
	reviewPageSize  = 8
)

// Actor is the resolved identity performing an operation. The boundary layer
// authenticates; services only authorise against role and ownership.
type Actor struct {
	ID   string
	Role domain.Role
}

// Listing is one page of results together with the navigation metadata.
type Listing[T any] struct {
	Items []T
	Page  pagination.Result
}

// InventoryService is the stock ledger. All stock changes in the system flow
// through Reserve and Release.
type InventoryService interface {
	// Reserve atomically decrements stock for the product and returns the
	// line details captured at reservation time.
	Reserve(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error)
	// Release returns previously reserved stock. Callers are responsible for
	// invoking it at most once per reservation.
	Release(ctx context.Context, productID string, quantity int) error
}

// OrderLine is one (product, quantity) pair in a placement request.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// PlaceOrderCommand carries the input for a multi-line order placement.
type PlaceOrderCommand struct {
	Actor        Actor
	Lines        []OrderLine
	Destination  string
	DeliveryNote string
}

// OrderService owns order placement and the order-item lifecycle.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	CancelOrderItem(ctx context.Context, actor Actor, orderItemID string) (domain.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, actor Actor, orderItemID string, target domain.OrderItemStatus) (domain.OrderItem, error)
	FindOrder(ctx context.Context, actor Actor, orderID string) (domain.Order, error)
	FindOrderItem(ctx context.Context, actor Actor, orderItemID string) (domain.OrderItem, error)
	ListOrdersForConsumer(ctx context.Context, actor Actor, consumerID string, page int) (Listing[domain.Order], error)
	ListOrderItemsForProvider(ctx context.Context, actor Actor, providerID string, page int) (Listing[domain.OrderItem], error)
}

// RequestRefundCommand carries the input for a refund or exchange request.
type RequestRefundCommand struct {
	Actor              Actor
	OrderItemID        string
	Status             domain.RefundStatus
	PickupDay          string
	PickupPlace        string
	RefundPay          int64
	ProblemTitle       string
	ProblemDescription string
}

// RefundService coordinates refund records with order-item transitions.
type RefundService interface {
	RequestRefund(ctx context.Context, cmd RequestRefundCommand) (domain.Refund, error)
	ListRefundsForConsumer(ctx context.Context, actor Actor, consumerID string, page int) (Listing[domain.Refund], error)
	// ListRefundsForProvider pages the provider's order items that reached a
	// terminal refund or cancellation state.
	ListRefundsForProvider(ctx context.Context, actor Actor, providerID string, page int) (Listing[domain.OrderItem], error)
}

// SignUpCommand carries the input for account creation.
type SignUpCommand struct {
	Email       string
	Username    string
	Password    string
	Role        domain.Role
	Language    string
	PhoneNumber string
	Address     string
}

// LogInCommand carries the credentials for a login attempt.
type LogInCommand struct {
	Email    string
	Password string
}

// LoginResult bundles the authenticated user with the issued bearer token.
type LoginResult struct {
	User  domain.User
	Token string
}

// UpdateProfileCommand carries the editable profile fields. Nil pointers
// leave the current value untouched.
type UpdateProfileCommand struct {
	Actor       Actor
	UserID      string
	Email       *string
	Username    *string
	Language    *string
	PhoneNumber *string
	Address     *string
	Bio         *string
	UserImg     *string
}

// ChangePasswordCommand carries a password change request.
type ChangePasswordCommand struct {
	Actor       Actor
	UserID      string
	OldPassword string
	NewPassword string
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(userID string, role domain.Role, email string) (string, error)
}

// UserService owns accounts and credentials.
type UserService interface {
	SignUp(ctx context.Context, cmd SignUpCommand) (domain.User, error)
	LogIn(ctx context.Context, cmd LogInCommand) (LoginResult, error)
	GetProfile(ctx context.Context, actor Actor, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (domain.User, error)
	ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error
}

// CreateProductCommand carries the input for adding a product.
type CreateProductCommand struct {
	Actor       Actor
	Name        string
	Price       int64
	Stock       int
	Description string
	BigImg      string
	CategoryID  string
}

// UpdateProductCommand carries the editable product fields. Nil pointers
// leave the current value untouched. Stock is deliberately absent: stock
// changes only flow through the inventory ledger.
type UpdateProductCommand struct {
	Actor       Actor
	ProductID   string
	Name        *string
	Price       *int64
	Description *string
	BigImg      *string
	CategoryID  *string
}

// ProductService owns the catalogue.
type ProductService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error)
	DeleteProduct(ctx context.Context, actor Actor, productID string) error
	FindProduct(ctx context.Context, productID string) (domain.Product, error)
	ListByProvider(ctx context.Context, providerID string, sort domain.ProductSort, page int) (Listing[domain.Product], error)
	ListByCategory(ctx context.Context, categoryID string, sort domain.ProductSort, page int) (Listing[domain.Product], error)
	Search(ctx context.Context, query string, sort domain.ProductSort, page int) (Listing[domain.Product], error)
}

// CategoryCommand carries category create/edit input.
type CategoryCommand struct {
	Actor    Actor
	Name     string
	CoverImg string
}

// CategoryService owns the category tree. Mutations are admin only.
type CategoryService interface {
	CreateCategory(ctx context.Context, cmd CategoryCommand) (domain.Category, error)
	UpdateCategory(ctx context.Context, actor Actor, categoryID string, cmd CategoryCommand) (domain.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, categoryID string) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
}

// CreateReviewCommand carries the input for posting a review.
type CreateReviewCommand struct {
	Actor     Actor
	ProductID string
	Rating    int
	Content   string
}

// UpdateReviewCommand carries the editable review fields.
type UpdateReviewCommand struct {
	Actor    Actor
	ReviewID string
	Rating   *int
	Content  *string
}

// ProductReviews is one page of reviews plus the product's aggregate rating.
type ProductReviews struct {
	Listing[domain.Review]
	AvgRating   float64
	ReviewCount int
}

// ReviewService owns product reviews and maintains the product rating
// aggregate.
type ReviewService interface {
	CreateReview(ctx context.Context, cmd CreateReviewCommand) (domain.Review, error)
	UpdateReview(ctx context.Context, cmd UpdateReviewCommand) (domain.Review, error)
	DeleteReview(ctx context.Context, actor Actor, reviewID string) error
	ListByProduct(ctx context.Context, productID string, page int) (ProductReviews, error)
	// ListByCommenter pages one user's reviews; consumers see only their own.
	ListByCommenter(ctx context.Context, actor Actor, commenterID string, page int) (Listing[domain.Review], error)
}

// LikeService owns the per-user liked product set.
type LikeService interface {
	ListLiked(ctx context.Context, actor Actor) ([]domain.Product, error)
	Like(ctx context.Context, actor Actor, productID string) error
	Unlike(ctx context.Context, actor Actor, productID string) error
}
