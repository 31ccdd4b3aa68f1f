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

const ordersCollection = "orders"

type orderDocument struct {
	OrderNumber  string    `firestore:"orderNumber"`
	ConsumerID   string    `firestore:"consumerId"`
	Total        int64     `firestore:"total"`
	Destination  string    `firestore:"destination"`
	DeliveryNote string    `firestore:"deliveryNote,omitempty"`
	OrderedAt    string    `firestore:"orderedAt"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// OrderRepository persists order aggregates. The order header and its items
// live in separate collections and are written in one transaction so a reader
// never observes a partial aggregate.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
	items    *pfirestore.BaseRepository[orderItemDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil),
		items:    pfirestore.NewBaseRepository[orderItemDocument](provider, orderItemsCollection, nil),
	}, nil
}

// Insert writes the order and every item in a single transaction.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	if len(order.Items) == 0 {
		return errors.New("order requires at least one item")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		orderRef, err := r.base.DocumentRef(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(orderRef, fromDomainOrder(order)); err != nil {
			return err
		}
		for _, item := range order.Items {
			itemRef, err := r.items.DocumentRef(ctx, item.ID)
			if err != nil {
				return err
			}
			if err := tx.Create(itemRef, fromDomainOrderItem(item)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByID loads the order and its items.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order := toDomainOrder(doc.ID, doc.Data)

	itemDocs, err := r.items.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return domain.Order{}, err
	}
	for _, itemDoc := range itemDocs {
		order.Items = append(order.Items, toDomainOrderItem(itemDoc.ID, itemDoc.Data))
	}
	return order, nil
}

// ListByConsumer pages a consumer's order history newest first.
func (r *OrderRepository) ListByConsumer(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Order]{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(filter.ConsumerID) == "" {
		return domain.Page[domain.Order]{}, errors.New("consumer id is required")
	}

	match := func(q firestore.Query) firestore.Query {
		return q.Where("consumerId", "==", filter.ConsumerID)
	}

	total, err := r.base.Count(ctx, match)
	if err != nil {
		return domain.Page[domain.Order]{}, err
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
		return domain.Page[domain.Order]{}, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order := toDomainOrder(doc.ID, doc.Data)
		itemDocs, err := r.items.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("orderId", "==", order.ID).OrderBy("createdAt", firestore.Asc)
		})
		if err != nil {
			return domain.Page[domain.Order]{}, err
		}
		for _, itemDoc := range itemDocs {
			order.Items = append(order.Items, toDomainOrderItem(itemDoc.ID, itemDoc.Data))
		}
		orders = append(orders, order)
	}
	return domain.Page[domain.Order]{Items: orders, Total: total}, nil
}

func fromDomainOrder(order domain.Order) orderDocument {
	return orderDocument{
		OrderNumber:  order.OrderNumber,
		ConsumerID:   order.ConsumerID,
		Total:        order.Total,
		Destination:  order.Destination,
		DeliveryNote: order.DeliveryNote,
		OrderedAt:    order.OrderedAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	return domain.Order{
		ID:           id,
		OrderNumber:  doc.OrderNumber,
		ConsumerID:   doc.ConsumerID,
		Total:        doc.Total,
		Destination:  doc.Destination,
		DeliveryNote: doc.DeliveryNote,
		OrderedAt:    doc.OrderedAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
