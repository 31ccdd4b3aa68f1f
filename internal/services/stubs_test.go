package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

// notFoundRepoError mimics the categorised repository error surface.
type notFoundRepoError struct{ msg string }

func (e *notFoundRepoError) Error() string       { return e.msg }
func (e *notFoundRepoError) IsNotFound() bool    { return true }
func (e *notFoundRepoError) IsConflict() bool    { return false }
func (e *notFoundRepoError) IsUnavailable() bool { return false }

var errStubNotFound = &notFoundRepoError{msg: "stub: not found"}

type stubUserRepository struct {
	insertFn         func(ctx context.Context, user domain.User) error
	updateFn         func(ctx context.Context, user domain.User) error
	findByIDFn       func(ctx context.Context, userID string) (domain.User, error)
	findByEmailFn    func(ctx context.Context, email string) (domain.User, error)
	findByUsernameFn func(ctx context.Context, username string) (domain.User, error)
}

func (s *stubUserRepository) Insert(ctx context.Context, user domain.User) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, user)
}

func (s *stubUserRepository) Update(ctx context.Context, user domain.User) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, user)
}

func (s *stubUserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if s.findByIDFn == nil {
		return domain.User{ID: userID}, nil
	}
	return s.findByIDFn(ctx, userID)
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if s.findByEmailFn == nil {
		return domain.User{}, errStubNotFound
	}
	return s.findByEmailFn(ctx, email)
}

func (s *stubUserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if s.findByUsernameFn == nil {
		return domain.User{}, errStubNotFound
	}
	return s.findByUsernameFn(ctx, username)
}

type stubCategoryRepository struct {
	insertFn     func(ctx context.Context, category domain.Category) error
	updateFn     func(ctx context.Context, category domain.Category) error
	deleteFn     func(ctx context.Context, categoryID string) error
	findByIDFn   func(ctx context.Context, categoryID string) (domain.Category, error)
	findBySlugFn func(ctx context.Context, slug string) (domain.Category, error)
	listFn       func(ctx context.Context) ([]domain.Category, error)
}

func (s *stubCategoryRepository) Insert(ctx context.Context, category domain.Category) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, category)
}

func (s *stubCategoryRepository) Update(ctx context.Context, category domain.Category) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, category)
}

func (s *stubCategoryRepository) Delete(ctx context.Context, categoryID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, categoryID)
}

func (s *stubCategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	if s.findByIDFn == nil {
		return domain.Category{ID: categoryID}, nil
	}
	return s.findByIDFn(ctx, categoryID)
}

func (s *stubCategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	if s.findBySlugFn == nil {
		return domain.Category{}, errStubNotFound
	}
	return s.findBySlugFn(ctx, slug)
}

func (s *stubCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

type stubProductRepository struct {
	insertFn       func(ctx context.Context, product domain.Product) error
	updateFn       func(ctx context.Context, product domain.Product) error
	deleteFn       func(ctx context.Context, productID string) error
	findByIDFn     func(ctx context.Context, productID string) (domain.Product, error)
	listFn         func(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error)
	reserveFn      func(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error)
	releaseFn      func(ctx context.Context, productID string, quantity int) error
	updateRatingFn func(ctx context.Context, productID string, avgRating float64, reviewCount int) error
}

func (s *stubProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, product)
}

func (s *stubProductRepository) Update(ctx context.Context, product domain.Product) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, product)
}

func (s *stubProductRepository) Delete(ctx context.Context, productID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, productID)
}

func (s *stubProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findByIDFn == nil {
		return domain.Product{ID: productID}, nil
	}
	return s.findByIDFn(ctx, productID)
}

func (s *stubProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	if s.listFn == nil {
		return domain.Page[domain.Product]{}, nil
	}
	return s.listFn(ctx, filter)
}

func (s *stubProductRepository) ReserveStock(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
	if s.reserveFn == nil {
		return repositories.ReservedLine{ProductID: productID, Quantity: quantity}, nil
	}
	return s.reserveFn(ctx, productID, quantity)
}

func (s *stubProductRepository) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	if s.releaseFn == nil {
		return nil
	}
	return s.releaseFn(ctx, productID, quantity)
}

func (s *stubProductRepository) UpdateRating(ctx context.Context, productID string, avgRating float64, reviewCount int) error {
	if s.updateRatingFn == nil {
		return nil
	}
	return s.updateRatingFn(ctx, productID, avgRating, reviewCount)
}

type stubOrderRepository struct {
	insertFn         func(ctx context.Context, order domain.Order) error
	findByIDFn       func(ctx context.Context, orderID string) (domain.Order, error)
	listByConsumerFn func(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error)
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByIDFn == nil {
		return domain.Order{}, errStubNotFound
	}
	return s.findByIDFn(ctx, orderID)
}

func (s *stubOrderRepository) ListByConsumer(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	if s.listByConsumerFn == nil {
		return domain.Page[domain.Order]{}, nil
	}
	return s.listByConsumerFn(ctx, filter)
}

type stubOrderItemRepository struct {
	findByIDFn       func(ctx context.Context, orderItemID string) (domain.OrderItem, error)
	updateStatusFn   func(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error
	listByProviderFn func(ctx context.Context, filter repositories.OrderItemListFilter) (domain.Page[domain.OrderItem], error)
	hasPurchaseFn    func(ctx context.Context, consumerID, productID string) (bool, error)
}

func (s *stubOrderItemRepository) FindByID(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
	if s.findByIDFn == nil {
		return domain.OrderItem{}, errStubNotFound
	}
	return s.findByIDFn(ctx, orderItemID)
}

func (s *stubOrderItemRepository) UpdateStatus(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error {
	if s.updateStatusFn == nil {
		return nil
	}
	return s.updateStatusFn(ctx, orderItemID, status)
}

func (s *stubOrderItemRepository) ListByProvider(ctx context.Context, filter repositories.OrderItemListFilter) (domain.Page[domain.OrderItem], error) {
	if s.listByProviderFn == nil {
		return domain.Page[domain.OrderItem]{}, nil
	}
	return s.listByProviderFn(ctx, filter)
}

func (s *stubOrderItemRepository) HasPurchase(ctx context.Context, consumerID, productID string) (bool, error) {
	if s.hasPurchaseFn == nil {
		return true, nil
	}
	return s.hasPurchaseFn(ctx, consumerID, productID)
}

type stubRefundRepository struct {
	insertFn         func(ctx context.Context, refund domain.Refund) error
	deleteFn         func(ctx context.Context, refundID string) error
	findByIDFn       func(ctx context.Context, refundID string) (domain.Refund, error)
	listByRefundeeFn func(ctx context.Context, filter repositories.RefundListFilter) (domain.Page[domain.Refund], error)
}

func (s *stubRefundRepository) Insert(ctx context.Context, refund domain.Refund) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, refund)
}

func (s *stubRefundRepository) Delete(ctx context.Context, refundID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, refundID)
}

func (s *stubRefundRepository) FindByID(ctx context.Context, refundID string) (domain.Refund, error) {
	if s.findByIDFn == nil {
		return domain.Refund{}, errStubNotFound
	}
	return s.findByIDFn(ctx, refundID)
}

func (s *stubRefundRepository) ListByRefundee(ctx context.Context, filter repositories.RefundListFilter) (domain.Page[domain.Refund], error) {
	if s.listByRefundeeFn == nil {
		return domain.Page[domain.Refund]{}, nil
	}
	return s.listByRefundeeFn(ctx, filter)
}

type stubReviewRepository struct {
	insertFn          func(ctx context.Context, review domain.Review) error
	updateFn          func(ctx context.Context, review domain.Review) error
	deleteFn          func(ctx context.Context, reviewID string) error
	findByIDFn        func(ctx context.Context, reviewID string) (domain.Review, error)
	listByProductFn   func(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error)
	listByCommenterFn func(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error)
}

func (s *stubReviewRepository) Insert(ctx context.Context, review domain.Review) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, review)
}

func (s *stubReviewRepository) Update(ctx context.Context, review domain.Review) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, review)
}

func (s *stubReviewRepository) Delete(ctx context.Context, reviewID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, reviewID)
}

func (s *stubReviewRepository) FindByID(ctx context.Context, reviewID string) (domain.Review, error) {
	if s.findByIDFn == nil {
		return domain.Review{}, errStubNotFound
	}
	return s.findByIDFn(ctx, reviewID)
}

func (s *stubReviewRepository) ListByProduct(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error) {
	if s.listByProductFn == nil {
		return domain.Page[domain.Review]{}, nil
	}
	return s.listByProductFn(ctx, filter)
}

func (s *stubReviewRepository) ListByCommenter(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error) {
	if s.listByCommenterFn == nil {
		return domain.Page[domain.Review]{}, nil
	}
	return s.listByCommenterFn(ctx, filter)
}

type stubLikeRepository struct {
	getFn  func(ctx context.Context, userID string) (domain.Like, error)
	saveFn func(ctx context.Context, like domain.Like) error
}

func (s *stubLikeRepository) Get(ctx context.Context, userID string) (domain.Like, error) {
	if s.getFn == nil {
		return domain.Like{}, errStubNotFound
	}
	return s.getFn(ctx, userID)
}

func (s *stubLikeRepository) Save(ctx context.Context, like domain.Like) error {
	if s.saveFn == nil {
		return nil
	}
	return s.saveFn(ctx, like)
}

type stubUnitOfWork struct {
	runInTxFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (s *stubUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.runInTxFn == nil {
		return fn(ctx)
	}
	return s.runInTxFn(ctx, fn)
}

type stubCounterRepository struct {
	nextFn func(ctx context.Context, name string) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	if s.nextFn == nil {
		return 1, nil
	}
	return s.nextFn(ctx, name)
}

type stubInventory struct {
	reserveFn func(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error)
	releaseFn func(ctx context.Context, productID string, quantity int) error
}

func (s *stubInventory) Reserve(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
	if s.reserveFn == nil {
		return repositories.ReservedLine{ProductID: productID, Quantity: quantity}, nil
	}
	return s.reserveFn(ctx, productID, quantity)
}

func (s *stubInventory) Release(ctx context.Context, productID string, quantity int) error {
	if s.releaseFn == nil {
		return nil
	}
	return s.releaseFn(ctx, productID, quantity)
}

type stubTokenIssuer struct {
	issueFn func(userID string, role domain.Role, email string) (string, error)
}

func (s *stubTokenIssuer) IssueToken(userID string, role domain.Role, email string) (string, error) {
	if s.issueFn == nil {
		return "token-" + userID, nil
	}
	return s.issueFn(userID, role, email)
}

// sequentialIDs returns an ID generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errStubBoom = errors.New("stub: boom")
