package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seoulmarket/api/internal/domain"
	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
)

const likesCollection = "likes"

type likeDocument struct {
	ProductIDs []string  `firestore:"productIds"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

// LikeRepository persists the per-user liked product set, one document per
// user keyed by the user ID.
type LikeRepository struct {
	base *pfirestore.BaseRepository[likeDocument]
}

// NewLikeRepository constructs a Firestore-backed like repository.
func NewLikeRepository(provider *pfirestore.Provider) (*LikeRepository, error) {
	if provider == nil {
		return nil, errors.New("like repository requires firestore provider")
	}
	return &LikeRepository{
		base: pfirestore.NewBaseRepository[likeDocument](provider, likesCollection, nil),
	}, nil
}

// Get loads the liked product set for the user.
func (r *LikeRepository) Get(ctx context.Context, userID string) (domain.Like, error) {
	if r == nil || r.base == nil {
		return domain.Like{}, errors.New("like repository not initialised")
	}
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.Like{}, err
	}
	return domain.Like{
		UserID:     doc.ID,
		ProductIDs: doc.Data.ProductIDs,
		UpdatedAt:  doc.Data.UpdatedAt,
	}, nil
}

// Save upserts the liked product set.
func (r *LikeRepository) Save(ctx context.Context, like domain.Like) error {
	if r == nil || r.base == nil {
		return errors.New("like repository not initialised")
	}
	if strings.TrimSpace(like.UserID) == "" {
		return errors.New("user id is required")
	}
	productIDs := like.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}
	return r.base.Set(ctx, like.UserID, likeDocument{
		ProductIDs: productIDs,
		UpdatedAt:  like.UpdatedAt,
	})
}
