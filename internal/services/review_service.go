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

// ReviewServiceDeps wires the review service dependencies.
type ReviewServiceDeps struct {
	Reviews    repositories.ReviewRepository
	Products   repositories.ProductRepository
	OrderItems repositories.OrderItemRepository
	Clock      func() time.Time
	IDGen      func() string
	Logger     *zap.Logger
}

type reviewService struct {
	reviews    repositories.ReviewRepository
	products   repositories.ProductRepository
	orderItems repositories.OrderItemRepository
	clock      func() time.Time
	idGen      func() string
	logger     *zap.Logger
	sanitizer  *bluemonday.Policy
}

// NewReviewService constructs the review service.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service requires review repository")
	}
	if deps.Products == nil {
		return nil, errors.New("review service requires product repository")
	}
	if deps.OrderItems == nil {
		return nil, errors.New("review service requires order item repository")
	}
	svc := &reviewService{
		reviews:    deps.Reviews,
		products:   deps.Products,
		orderItems: deps.OrderItems,
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

// CreateReview posts a review for a purchased product and folds the rating
// into the product's running average.
func (s *reviewService) CreateReview(ctx context.Context, cmd CreateReviewCommand) (domain.Review, error) {
	if cmd.Actor.Role != domain.RoleConsumer {
		return domain.Review{}, fmt.Errorf("%w: only consumers post reviews", ErrForbidden)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRequest)
	}
	content := s.sanitizer.Sanitize(strings.TrimSpace(cmd.Content))
	if content == "" {
		return domain.Review{}, fmt.Errorf("%w: review content is required", ErrInvalidRequest)
	}

	product, err := s.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return domain.Review{}, mapRepositoryError(err)
	}
	purchased, err := s.orderItems.HasPurchase(ctx, cmd.Actor.ID, cmd.ProductID)
	if err != nil {
		return domain.Review{}, mapRepositoryError(err)
	}
	if !purchased {
		return domain.Review{}, fmt.Errorf("%w: only buyers review a product", ErrForbidden)
	}

	now := s.clock().UTC()
	review := domain.Review{
		ID:          reviewIDPrefix + s.idGen(),
		ProductID:   cmd.ProductID,
		CommenterID: cmd.Actor.ID,
		Rating:      cmd.Rating,
		Content:     content,
		ReviewedAt:  displayDate(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return domain.Review{}, mapRepositoryError(err)
	}

	// avg' = (avg*n + rating) / (n+1)
	count := product.ReviewCount
	newAvg := (product.AvgRating*float64(count) + float64(cmd.Rating)) / float64(count+1)
	s.applyRating(ctx, product.ID, newAvg, count+1)

	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, cmd UpdateReviewCommand) (domain.Review, error) {
	review, err := s.reviews.FindByID(ctx, cmd.ReviewID)
	if err != nil {
		return domain.Review{}, mapRepositoryError(err)
	}
	if cmd.Actor.Role != domain.RoleAdmin && review.CommenterID != cmd.Actor.ID {
		return domain.Review{}, fmt.Errorf("%w: review belongs to another user", ErrForbidden)
	}

	oldRating := review.Rating
	if cmd.Rating != nil {
		if *cmd.Rating < 1 || *cmd.Rating > 5 {
			return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRequest)
		}
		review.Rating = *cmd.Rating
	}
	if cmd.Content != nil {
		content := s.sanitizer.Sanitize(strings.TrimSpace(*cmd.Content))
		if content == "" {
			return domain.Review{}, fmt.Errorf("%w: review content is required", ErrInvalidRequest)
		}
		review.Content = content
	}
	review.UpdatedAt = s.clock().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return domain.Review{}, mapRepositoryError(err)
	}

	if review.Rating != oldRating {
		if product, err := s.products.FindByID(ctx, review.ProductID); err == nil && product.ReviewCount > 0 {
			newAvg := product.AvgRating + float64(review.Rating-oldRating)/float64(product.ReviewCount)
			s.applyRating(ctx, product.ID, newAvg, product.ReviewCount)
		}
	}
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor Actor, reviewID string) error {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if actor.Role != domain.RoleAdmin && review.CommenterID != actor.ID {
		return fmt.Errorf("%w: review belongs to another user", ErrForbidden)
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return mapRepositoryError(err)
	}

	if product, err := s.products.FindByID(ctx, review.ProductID); err == nil && product.ReviewCount > 0 {
		count := product.ReviewCount - 1
		newAvg := 0.0
		if count > 0 {
			newAvg = (product.AvgRating*float64(product.ReviewCount) - float64(review.Rating)) / float64(count)
		}
		s.applyRating(ctx, product.ID, newAvg, count)
	}
	return nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string, page int) (ProductReviews, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return ProductReviews{}, mapRepositoryError(err)
	}

	page = normalisePage(page)
	result, err := s.reviews.ListByProduct(ctx, repositories.ReviewListFilter{
		ProductID: productID,
		Offset:    (page - 1) * reviewPageSize,
		Limit:     reviewPageSize,
	})
	if err != nil {
		return ProductReviews{}, mapRepositoryError(err)
	}
	return ProductReviews{
		Listing:     listingFromPage(result, page, reviewPageSize),
		AvgRating:   product.AvgRating,
		ReviewCount: product.ReviewCount,
	}, nil
}

// ListByCommenter pages one user's reviews, newest first.
func (s *reviewService) ListByCommenter(ctx context.Context, actor Actor, commenterID string, page int) (Listing[domain.Review], error) {
	if actor.Role != domain.RoleAdmin && actor.ID != commenterID {
		return Listing[domain.Review]{}, fmt.Errorf("%w: reviews belong to another user", ErrForbidden)
	}

	page = normalisePage(page)
	result, err := s.reviews.ListByCommenter(ctx, repositories.ReviewListFilter{
		CommenterID: commenterID,
		Offset:      (page - 1) * reviewPageSize,
		Limit:       reviewPageSize,
	})
	if err != nil {
		return Listing[domain.Review]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, reviewPageSize), nil
}

// applyRating writes the aggregate back; failures are logged, the review
// write itself has already succeeded.
func (s *reviewService) applyRating(ctx context.Context, productID string, avgRating float64, reviewCount int) {
	if err := s.products.UpdateRating(ctx, productID, avgRating, reviewCount); err != nil {
		contextLogger(ctx, s.logger).Error("product rating aggregate update failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}
