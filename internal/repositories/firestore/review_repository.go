package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/seoulmarket/api/internal/domain"
	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
	"github.com/seoulmarket/api/internal/repositories"
)

const reviewsCollection = "reviews"

type reviewDocument struct {
	ProductID   string    `firestore:"productId"`
	CommenterID string    `firestore:"commenterId"`
	Rating      int       `firestore:"rating"`
	Content     string    `firestore:"content"`
	ReviewedAt  string    `firestore:"reviewedAt"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// ReviewRepository persists product reviews.
type ReviewRepository struct {
	base *pfirestore.BaseRepository[reviewDocument]
}

// NewReviewRepository constructs a Firestore-backed review repository.
func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}
	return &ReviewRepository{
		base: pfirestore.NewBaseRepository[reviewDocument](provider, reviewsCollection, nil),
	}, nil
}

// Insert creates the review document.
func (r *ReviewRepository) Insert(ctx context.Context, review domain.Review) error {
	if r == nil || r.base == nil {
		return errors.New("review repository not initialised")
	}
	if strings.TrimSpace(review.ID) == "" {
		return errors.New("review id is required")
	}

	ref, err := r.base.DocumentRef(ctx, review.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainReview(review)); err != nil {
		return pfirestore.WrapError("reviews.insert", err)
	}
	return nil
}

// Update replaces the review document.
func (r *ReviewRepository) Update(ctx context.Context, review domain.Review) error {
	if r == nil || r.base == nil {
		return errors.New("review repository not initialised")
	}
	return r.base.Set(ctx, review.ID, fromDomainReview(review))
}

// Delete removes the review, failing when it does not exist.
func (r *ReviewRepository) Delete(ctx context.Context, reviewID string) error {
	if r == nil || r.base == nil {
		return errors.New("review repository not initialised")
	}
	return r.base.Delete(ctx, reviewID, firestore.Exists)
}

// FindByID loads the review by ID.
func (r *ReviewRepository) FindByID(ctx context.Context, reviewID string) (domain.Review, error) {
	if r == nil || r.base == nil {
		return domain.Review{}, errors.New("review repository not initialised")
	}
	doc, err := r.base.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	return toDomainReview(doc.ID, doc.Data), nil
}

// ListByProduct pages reviews for one product, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Review]{}, errors.New("review repository not initialised")
	}
	if strings.TrimSpace(filter.ProductID) == "" {
		return domain.Page[domain.Review]{}, errors.New("product id is required")
	}

	match := func(q firestore.Query) firestore.Query {
		return q.Where("productId", "==", filter.ProductID)
	}

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = match(q).OrderBy("createdAt", firestore.Desc)
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, toDomainReview(doc.ID, doc.Data))
	}
	return domain.Page[domain.Review]{Items: reviews, Total: total}, nil
}

// ListByCommenter pages one user's reviews, newest first.
func (r *ReviewRepository) ListByCommenter(ctx context.Context, filter repositories.ReviewListFilter) (domain.Page[domain.Review], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Review]{}, errors.New("review repository not initialised")
	}
	if strings.TrimSpace(filter.CommenterID) == "" {
		return domain.Page[domain.Review]{}, errors.New("commenter id is required")
	}

	match := func(q firestore.Query) firestore.Query {
		return q.Where("commenterId", "==", filter.CommenterID)
	}

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = match(q).OrderBy("createdAt", firestore.Desc)
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, toDomainReview(doc.ID, doc.Data))
	}
	return domain.Page[domain.Review]{Items: reviews, Total: total}, nil
}

func fromDomainReview(review domain.Review) reviewDocument {
	return reviewDocument{
		ProductID:   review.ProductID,
		CommenterID: review.CommenterID,
		Rating:      review.Rating,
		Content:     review.Content,
		ReviewedAt:  review.ReviewedAt,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}
}

func toDomainReview(id string, doc reviewDocument) domain.Review {
	return domain.Review{
		ID:          id,
		ProductID:   doc.ProductID,
		CommenterID: doc.CommenterID,
		Rating:      doc.Rating,
		Content:     doc.Content,
		ReviewedAt:  doc.ReviewedAt,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
