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

const orderItemsCollection = "orderItems"

type orderItemDocument struct {
	OrderID     string    `firestore:"orderId"`
	ProductID   string    `firestore:"productId"`
	ProductName string    `firestore:"productName"`
	ProviderID  string    `firestore:"providerId"`
	ConsumerID  string    `firestore:"consumerId"`
	UnitPrice   int64     `firestore:"unitPrice"`
	Quantity    int       `firestore:"quantity"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// OrderItemRepository reads and transitions individual order items.
type OrderItemRepository struct {
	base *pfirestore.BaseRepository[orderItemDocument]
}

// NewOrderItemRepository constructs a Firestore-backed order item repository.
func NewOrderItemRepository(provider *pfirestore.Provider) (*OrderItemRepository, error) {
	if provider == nil {
		return nil, errors.New("order item repository requires firestore provider")
	}
	return &OrderItemRepository{
		base: pfirestore.NewBaseRepository[orderItemDocument](provider, orderItemsCollection, nil),
	}, nil
}

// FindByID loads the order item by ID.
func (r *OrderItemRepository) FindByID(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
	if r == nil || r.base == nil {
		return domain.OrderItem{}, errors.New("order item repository not initialised")
	}
	doc, err := r.base.Get(ctx, orderItemID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return toDomainOrderItem(doc.ID, doc.Data), nil
}

// UpdateStatus writes the new lifecycle status on the item.
func (r *OrderItemRepository) UpdateStatus(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error {
	if r == nil || r.base == nil {
		return errors.New("order item repository not initialised")
	}
	return r.base.Update(ctx, orderItemID, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}

// ListByProvider pages a provider's order items restricted to a status set.
func (r *OrderItemRepository) ListByProvider(ctx context.Context, filter repositories.OrderItemListFilter) (domain.Page[domain.OrderItem], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.OrderItem]{}, errors.New("order item repository not initialised")
	}
	if strings.TrimSpace(filter.ProviderID) == "" {
		return domain.Page[domain.OrderItem]{}, errors.New("provider id is required")
	}

	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	match := func(q firestore.Query) firestore.Query {
		q = q.Where("providerId", "==", filter.ProviderID)
		if len(statuses) > 0 {
			q = q.Where("status", "in", statuses)
		}
		return q
	}

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.OrderItem]{}, err
	}

	direction := firestore.Asc
	if filter.SortOrder == domain.SortDesc {
		direction = firestore.Desc
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = match(q).OrderBy("createdAt", direction)
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.OrderItem]{}, err
	}

	items := make([]domain.OrderItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainOrderItem(doc.ID, doc.Data))
	}
	return domain.Page[domain.OrderItem]{Items: items, Total: total}, nil
}

// HasPurchase reports whether the consumer has at least one order item for
// the product.
func (r *OrderItemRepository) HasPurchase(ctx context.Context, consumerID, productID string) (bool, error) {
	if r == nil || r.base == nil {
		return false, errors.New("order item repository not initialised")
	}
	total, err := r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("consumerId", "==", consumerID).Where("productId", "==", productID)
	})
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func fromDomainOrderItem(item domain.OrderItem) orderItemDocument {
	return orderItemDocument{
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProviderID:  item.ProviderID,
		ConsumerID:  item.ConsumerID,
		UnitPrice:   item.UnitPrice,
		Quantity:    item.Quantity,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toDomainOrderItem(id string, doc orderItemDocument) domain.OrderItem {
	status, _ := domain.ParseOrderItemStatus(doc.Status)
	return domain.OrderItem{
		ID:          id,
		OrderID:     doc.OrderID,
		ProductID:   doc.ProductID,
		ProductName: doc.ProductName,
		ProviderID:  doc.ProviderID,
		ConsumerID:  doc.ConsumerID,
		UnitPrice:   doc.UnitPrice,
		Quantity:    doc.Quantity,
		Status:      status,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
