package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

func newTestRefundService(t *testing.T, deps RefundServiceDeps) RefundService {
	t.Helper()
	if deps.Refunds == nil {
		deps.Refunds = &stubRefundRepository{}
	}
	if deps.OrderItems == nil {
		deps.OrderItems = &stubOrderItemRepository{}
	}
	if deps.Users == nil {
		deps.Users = &stubUserRepository{}
	}
	if deps.Clock == nil {
		deps.Clock = testClock
	}
	if deps.IDGen == nil {
		deps.IDGen = sequentialIDs()
	}
	svc, err := NewRefundService(deps)
	if err != nil {
		t.Fatalf("NewRefundService: %v", err)
	}
	return svc
}

func deliveredItem(consumerID string) func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
	return func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
		return domain.OrderItem{
			ID:         orderItemID,
			OrderID:    "ord_1",
			ConsumerID: consumerID,
			ProviderID: "usr_provider",
			Status:     domain.OrderItemDelivered,
		}, nil
	}
}

func TestRequestRefundSuccess(t *testing.T) {
	var savedRefund *domain.Refund
	var newStatus domain.OrderItemStatus

	refunds := &stubRefundRepository{
		insertFn: func(ctx context.Context, refund domain.Refund) error {
			savedRefund = &refund
			return nil
		},
	}
	orderItems := &stubOrderItemRepository{
		findByIDFn: deliveredItem("usr_consumer"),
		updateStatusFn: func(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error {
			newStatus = status
			return nil
		},
	}
	svc := newTestRefundService(t, RefundServiceDeps{Refunds: refunds, OrderItems: orderItems})

	refund, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    42000,
		ProblemTitle: "arrived cracked",
	})
	if err != nil {
		t.Fatalf("RequestRefund: %v", err)
	}

	if savedRefund == nil {
		t.Fatal("refund row was not written")
	}
	if newStatus != domain.OrderItemRefunded {
		t.Fatalf("item status = %s, want refunded", newStatus)
	}
	if refund.RefundeeID != "usr_consumer" || refund.RefundPay != 42000 {
		t.Fatalf("refund = %+v", refund)
	}
	if refund.RefundedAt != "2026.03.14" {
		t.Fatalf("refunded at = %q, want 2026.03.14", refund.RefundedAt)
	}
}

func TestRequestRefundExchangeShape(t *testing.T) {
	svc := newTestRefundService(t, RefundServiceDeps{
		OrderItems: &stubOrderItemRepository{findByIDFn: deliveredItem("usr_consumer")},
	})
	actor := Actor{ID: "usr_consumer", Role: domain.RoleConsumer}

	// An exchange with a refund amount is malformed.
	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        actor,
		OrderItemID:  "itm_1",
		Status:       domain.RefundExchanged,
		PickupDay:    "2026.03.20",
		PickupPlace:  "front desk",
		RefundPay:    5000,
		ProblemTitle: "wrong colour",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("exchange with refund amount error = %v, want ErrInvalidRequest", err)
	}

	// An exchange without pickup details is malformed.
	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        actor,
		OrderItemID:  "itm_1",
		Status:       domain.RefundExchanged,
		ProblemTitle: "wrong colour",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("exchange without pickup error = %v, want ErrInvalidRequest", err)
	}

	// A monetary refund with pickup details is malformed.
	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        actor,
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    5000,
		PickupDay:    "2026.03.20",
		ProblemTitle: "wrong colour",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("refund with pickup error = %v, want ErrInvalidRequest", err)
	}
}

func TestRequestRefundPreconditionOrder(t *testing.T) {
	// The role check fires before shape validation, shape before lookup.
	svc := newTestRefundService(t, RefundServiceDeps{
		OrderItems: &stubOrderItemRepository{
			findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
				return domain.OrderItem{}, errStubNotFound
			},
		},
	})

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:       Actor{ID: "usr_provider", Role: domain.RoleProvider},
		OrderItemID: "itm_missing",
		Status:      domain.RefundRefunded,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("provider request error = %v, want ErrForbidden", err)
	}

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:       Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID: "itm_missing",
		Status:      domain.RefundRefunded,
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("malformed request error = %v, want ErrInvalidRequest before lookup", err)
	}

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:  "itm_missing",
		Status:       domain.RefundRefunded,
		RefundPay:    1000,
		ProblemTitle: "missing parcel",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown item error = %v, want ErrNotFound", err)
	}
}

func TestRequestRefundAlreadyFinalized(t *testing.T) {
	svc := newTestRefundService(t, RefundServiceDeps{
		OrderItems: &stubOrderItemRepository{
			findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
				return domain.OrderItem{
					ID:         orderItemID,
					ConsumerID: "usr_consumer",
					Status:     domain.OrderItemRefunded,
				}, nil
			},
		},
	})

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    1000,
		ProblemTitle: "again",
	}); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("second refund error = %v, want ErrAlreadyFinalized", err)
	}
}

func TestRequestRefundCanceledItemRejected(t *testing.T) {
	svc := newTestRefundService(t, RefundServiceDeps{
		OrderItems: &stubOrderItemRepository{
			findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
				return domain.OrderItem{
					ID:         orderItemID,
					ConsumerID: "usr_consumer",
					Status:     domain.OrderItemCanceled,
				}, nil
			},
		},
	})

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    1000,
		ProblemTitle: "canceled anyway",
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("refund on canceled item error = %v, want ErrInvalidTransition", err)
	}
}

func TestRequestRefundDeletesRowWhenTransitionFails(t *testing.T) {
	var insertedID, deletedID string

	refunds := &stubRefundRepository{
		insertFn: func(ctx context.Context, refund domain.Refund) error {
			insertedID = refund.ID
			return nil
		},
		deleteFn: func(ctx context.Context, refundID string) error {
			deletedID = refundID
			return nil
		},
	}
	orderItems := &stubOrderItemRepository{
		findByIDFn: deliveredItem("usr_consumer"),
		updateStatusFn: func(ctx context.Context, orderItemID string, status domain.OrderItemStatus) error {
			return errStubBoom
		},
	}
	svc := newTestRefundService(t, RefundServiceDeps{Refunds: refunds, OrderItems: orderItems})

	_, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    1000,
		ProblemTitle: "broken",
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("RequestRefund error = %v, want ErrStorage", err)
	}
	if insertedID == "" || deletedID != insertedID {
		t.Fatalf("inserted %q deleted %q, want the orphaned row removed", insertedID, deletedID)
	}
}

func TestRequestRefundOwnership(t *testing.T) {
	svc := newTestRefundService(t, RefundServiceDeps{
		OrderItems: &stubOrderItemRepository{findByIDFn: deliveredItem("usr_owner")},
	})

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:        Actor{ID: "usr_other", Role: domain.RoleConsumer},
		OrderItemID:  "itm_1",
		Status:       domain.RefundRefunded,
		RefundPay:    1000,
		ProblemTitle: "not mine",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign refund error = %v, want ErrForbidden", err)
	}
}

func TestRequestRefundSanitisesProblemText(t *testing.T) {
	var saved domain.Refund
	refunds := &stubRefundRepository{
		insertFn: func(ctx context.Context, refund domain.Refund) error {
			saved = refund
			return nil
		},
	}
	svc := newTestRefundService(t, RefundServiceDeps{
		Refunds:    refunds,
		OrderItems: &stubOrderItemRepository{findByIDFn: deliveredItem("usr_consumer")},
	})

	if _, err := svc.RequestRefund(context.Background(), RequestRefundCommand{
		Actor:              Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		OrderItemID:        "itm_1",
		Status:             domain.RefundRefunded,
		RefundPay:          1000,
		ProblemTitle:       `broken <script>alert("x")</script>`,
		ProblemDescription: "<b>cracked</b> lid",
	}); err != nil {
		t.Fatalf("RequestRefund: %v", err)
	}

	if strings.Contains(saved.ProblemTitle, "<script>") {
		t.Fatalf("problem title = %q, want script stripped", saved.ProblemTitle)
	}
	if saved.ProblemDescription != "cracked lid" {
		t.Fatalf("problem description = %q, want markup stripped", saved.ProblemDescription)
	}
}

func TestListRefundsForProviderUsesClosedStatuses(t *testing.T) {
	orderItems := &stubOrderItemRepository{
		listByProviderFn: func(ctx context.Context, filter repositories.OrderItemListFilter) (domain.Page[domain.OrderItem], error) {
			if len(filter.Statuses) != len(domain.ClosedOrderItemStatuses) {
				t.Fatalf("statuses = %v, want closed set", filter.Statuses)
			}
			if filter.SortOrder != domain.SortAsc {
				t.Fatalf("sort order = %s, want asc", filter.SortOrder)
			}
			return domain.Page[domain.OrderItem]{Items: make([]domain.OrderItem, 3), Total: 3}, nil
		},
	}
	svc := newTestRefundService(t, RefundServiceDeps{OrderItems: orderItems})

	listing, err := svc.ListRefundsForProvider(context.Background(), Actor{ID: "usr_p", Role: domain.RoleProvider}, "usr_p", 1)
	if err != nil {
		t.Fatalf("ListRefundsForProvider: %v", err)
	}
	if listing.Page.TotalPages != 1 || listing.Page.HasNext {
		t.Fatalf("page meta = %+v, want a single page", listing.Page)
	}

	if _, err := svc.ListRefundsForProvider(context.Background(), Actor{ID: "usr_q", Role: domain.RoleProvider}, "usr_p", 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign provider listing error = %v, want ErrForbidden", err)
	}
}
