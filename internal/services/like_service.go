package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

// LikeServiceDeps wires the like service dependencies.
type LikeServiceDeps struct {
	Likes    repositories.LikeRepository
	Products repositories.ProductRepository
	Clock    func() time.Time
	Logger   *zap.Logger
}

type likeService struct {
	likes    repositories.LikeRepository
	products repositories.ProductRepository
	clock    func() time.Time
	logger   *zap.Logger
}

// NewLikeService constructs the like service.
func NewLikeService(deps LikeServiceDeps) (LikeService, error) {
	if deps.Likes == nil {
		return nil, errors.New("like service requires like repository")
	}
	if deps.Products == nil {
		return nil, errors.New("like service requires product repository")
	}
	svc := &likeService{
		likes:    deps.Likes,
		products: deps.Products,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

// ListLiked resolves the actor's liked product IDs to products. Products that
// have been deleted since they were liked are skipped.
func (s *likeService) ListLiked(ctx context.Context, actor Actor) ([]domain.Product, error) {
	like, err := s.loadLike(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(like.ProductIDs))
	for _, productID := range like.ProductIDs {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(mapRepositoryError(err), ErrNotFound) {
				continue
			}
			return nil, mapRepositoryError(err)
		}
		products = append(products, product)
	}
	return products, nil
}

// Like adds the product to the actor's liked set. Liking twice is a no-op.
func (s *likeService) Like(ctx context.Context, actor Actor, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return mapRepositoryError(err)
	}

	like, err := s.loadLike(ctx, actor.ID)
	if err != nil {
		return err
	}
	for _, existing := range like.ProductIDs {
		if existing == productID {
			return nil
		}
	}
	like.ProductIDs = append(like.ProductIDs, productID)
	like.UpdatedAt = s.clock().UTC()

	if err := s.likes.Save(ctx, like); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// Unlike removes the product from the actor's liked set. Removing a product
// that is not in the set is a no-op.
func (s *likeService) Unlike(ctx context.Context, actor Actor, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}

	like, err := s.loadLike(ctx, actor.ID)
	if err != nil {
		return err
	}
	filtered := like.ProductIDs[:0]
	removed := false
	for _, existing := range like.ProductIDs {
		if existing == productID {
			removed = true
			continue
		}
		filtered = append(filtered, existing)
	}
	if !removed {
		return nil
	}
	like.ProductIDs = filtered
	like.UpdatedAt = s.clock().UTC()

	if err := s.likes.Save(ctx, like); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// loadLike tolerates a missing like document, which only happens for accounts
// created before the document was introduced.
func (s *likeService) loadLike(ctx context.Context, userID string) (domain.Like, error) {
	like, err := s.likes.Get(ctx, userID)
	if err != nil {
		if errors.Is(mapRepositoryError(err), ErrNotFound) {
			return domain.Like{UserID: userID, ProductIDs: []string{}}, nil
		}
		return domain.Like{}, mapRepositoryError(err)
	}
	if like.ProductIDs == nil {
		like.ProductIDs = []string{}
	}
	return like, nil
}
