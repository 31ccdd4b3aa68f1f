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

const refundsCollection = "refunds"

type refundDocument struct {
	OrderItemID        string    `firestore:"orderItemId"`
	RefundeeID         string    `firestore:"refundeeId"`
	Status             string    `firestore:"status"`
	PickupDay          string    `firestore:"pickupDay,omitempty"`
	PickupPlace        string    `firestore:"pickupPlace,omitempty"`
	RefundPay          int64     `firestore:"refundPay,omitempty"`
	ProblemTitle       string    `firestore:"problemTitle"`
	ProblemDescription string    `firestore:"problemDescription,omitempty"`
	RefundedAt         string    `firestore:"refundedAt"`
	CreatedAt          time.Time `firestore:"createdAt"`
}

// RefundRepository persists refund and exchange records.
type RefundRepository struct {
	base *pfirestore.BaseRepository[refundDocument]
}

// NewRefundRepository constructs a Firestore-backed refund repository.
func NewRefundRepository(provider *pfirestore.Provider) (*RefundRepository, error) {
	if provider == nil {
		return nil, errors.New("refund repository requires firestore provider")
	}
	return &RefundRepository{
		base: pfirestore.NewBaseRepository[refundDocument](provider, refundsCollection, nil),
	}, nil
}

// Insert creates the refund record.
func (r *RefundRepository) Insert(ctx context.Context, refund domain.Refund) error {
	if r == nil || r.base == nil {
		return errors.New("refund repository not initialised")
	}
	if strings.TrimSpace(refund.ID) == "" {
		return errors.New("refund id is required")
	}

	ref, err := r.base.DocumentRef(ctx, refund.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainRefund(refund)); err != nil {
		return pfirestore.WrapError("refunds.insert", err)
	}
	return nil
}

// Delete removes a refund record, used as compensation when the paired order
// item transition fails.
func (r *RefundRepository) Delete(ctx context.Context, refundID string) error {
	if r == nil || r.base == nil {
		return errors.New("refund repository not initialised")
	}
	return r.base.Delete(ctx, refundID, firestore.Exists)
}

// FindByID loads the refund by ID.
func (r *RefundRepository) FindByID(ctx context.Context, refundID string) (domain.Refund, error) {
	if r == nil || r.base == nil {
		return domain.Refund{}, errors.New("refund repository not initialised")
	}
	doc, err := r.base.Get(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	return toDomainRefund(doc.ID, doc.Data), nil
}

// ListByRefundee pages refund records for one consumer, newest first.
func (r *RefundRepository) ListByRefundee(ctx context.Context, filter repositories.RefundListFilter) (domain.Page[domain.Refund], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Refund]{}, errors.New("refund repository not initialised")
	}
	if strings.TrimSpace(filter.RefundeeID) == "" {
		return domain.Page[domain.Refund]{}, errors.New("refundee id is required")
	}

	match := func(q firestore.Query) firestore.Query {
		return q.Where("refundeeId", "==", filter.RefundeeID)
	}

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.Refund]{}, err
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
		return domain.Page[domain.Refund]{}, err
	}

	refunds := make([]domain.Refund, 0, len(docs))
	for _, doc := range docs {
		refunds = append(refunds, toDomainRefund(doc.ID, doc.Data))
	}
	return domain.Page[domain.Refund]{Items: refunds, Total: total}, nil
}

func fromDomainRefund(refund domain.Refund) refundDocument {
	return refundDocument{
		OrderItemID:        refund.OrderItemID,
		RefundeeID:         refund.RefundeeID,
		Status:             string(refund.Status),
		PickupDay:          refund.PickupDay,
		PickupPlace:        refund.PickupPlace,
		RefundPay:          refund.RefundPay,
		ProblemTitle:       refund.ProblemTitle,
		ProblemDescription: refund.ProblemDescription,
		RefundedAt:         refund.RefundedAt,
		CreatedAt:          refund.CreatedAt,
	}
}

func toDomainRefund(id string, doc refundDocument) domain.Refund {
	status, _ := domain.ParseRefundStatus(doc.Status)
	return domain.Refund{
		ID:                 id,
		OrderItemID:        doc.OrderItemID,
		RefundeeID:         doc.RefundeeID,
		Status:             status,
		PickupDay:          doc.PickupDay,
		PickupPlace:        doc.PickupPlace,
		RefundPay:          doc.RefundPay,
		ProblemTitle:       doc.ProblemTitle,
		ProblemDescription: doc.ProblemDescription,
		RefundedAt:         doc.RefundedAt,
		CreatedAt:          doc.CreatedAt,
	}
}
