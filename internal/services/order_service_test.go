package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/repositories"
)

var testClock = func() time.Time {
	return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
}

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepository{}
	}
	if deps.OrderItems == nil {
		deps.OrderItems = &stubOrderItemRepository{}
	}
	if deps.Users == nil {
		deps.Users = &stubUserRepository{}
	}
	if deps.Counters == nil {
		deps.Counters = &stubCounterRepository{}
	}
	if deps.Inventory == nil {
		deps.Inventory = &stubInventory{}
	}
	if deps.Clock == nil {
		deps.Clock = testClock
	}
	if deps.IDGen == nil {
		deps.IDGen = sequentialIDs()
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestPlaceOrderSuccess(t *testing.T) {
	prices := map[string]int64{"prd_a": 10000, "prd_b": 2500}
	var inserted *domain.Order

	inventory := &stubInventory{
		reserveFn: func(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
			return repositories.ReservedLine{
				ProductID:   productID,
				ProductName: "product " + productID,
				ProviderID:  "usr_provider",
				UnitPrice:   prices[productID],
				Quantity:    quantity,
			}, nil
		},
	}
	orders := &stubOrderRepository{
		insertFn: func(ctx context.Context, order domain.Order) error {
			inserted = &order
			return nil
		},
	}
	counters := &stubCounterRepository{
		nextFn: func(ctx context.Context, name string) (int64, error) {
			if name != "orders" {
				t.Fatalf("counter name = %q, want orders", name)
			}
			return 42, nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Counters: counters, Inventory: inventory})

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor: Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		Lines: []OrderLine{
			{ProductID: "prd_a", Quantity: 2},
			{ProductID: "prd_b", Quantity: 4},
		},
		Destination: "12 Insadong-gil, Seoul",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if inserted == nil {
		t.Fatal("order was not persisted")
	}
	if want := int64(2*10000 + 4*2500); order.Total != want {
		t.Fatalf("order total = %d, want %d", order.Total, want)
	}
	if order.OrderNumber != "SM-2026-000042" {
		t.Fatalf("order number = %q, want SM-2026-000042", order.OrderNumber)
	}
	if order.OrderedAt != "2026.03.14" {
		t.Fatalf("ordered at = %q, want 2026.03.14", order.OrderedAt)
	}
	if len(order.Items) != 2 {
		t.Fatalf("order has %d items, want 2", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Status != domain.OrderItemChecking {
			t.Fatalf("item %s status = %s, want checking", item.ID, item.Status)
		}
		if item.ConsumerID != "usr_consumer" || item.ProviderID != "usr_provider" {
			t.Fatalf("item %s parties = %s/%s", item.ID, item.ConsumerID, item.ProviderID)
		}
	}
}

func TestPlaceOrderReleasesEarlierLinesOnFailure(t *testing.T) {
	released := map[string]int{}
	inventory := &stubInventory{
		reserveFn: func(ctx context.Context, productID string, quantity int) (repositories.ReservedLine, error) {
			if productID == "prd_scarce" {
				return repositories.ReservedLine{}, fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
			}
			return repositories.ReservedLine{ProductID: productID, UnitPrice: 1000, Quantity: quantity}, nil
		},
		releaseFn: func(ctx context.Context, productID string, quantity int) error {
			released[productID] += quantity
			return nil
		},
	}
	orders := &stubOrderRepository{
		insertFn: func(ctx context.Context, order domain.Order) error {
			t.Fatal("order must not be written when a reservation fails")
			return nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Inventory: inventory})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor: Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		Lines: []OrderLine{
			{ProductID: "prd_a", Quantity: 2},
			{ProductID: "prd_scarce", Quantity: 9},
			{ProductID: "prd_b", Quantity: 1},
		},
		Destination: "12 Insadong-gil, Seoul",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("PlaceOrder error = %v, want ErrInsufficientStock", err)
	}

	if released["prd_a"] != 2 {
		t.Fatalf("prd_a released = %d, want 2", released["prd_a"])
	}
	if _, touched := released["prd_b"]; touched {
		t.Fatal("prd_b was never reserved and must not be released")
	}
}

func TestPlaceOrderReleasesEverythingWhenInsertFails(t *testing.T) {
	released := map[string]int{}
	inventory := &stubInventory{
		releaseFn: func(ctx context.Context, productID string, quantity int) error {
			released[productID] += quantity
			return nil
		},
	}
	orders := &stubOrderRepository{
		insertFn: func(ctx context.Context, order domain.Order) error {
			return errStubBoom
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Inventory: inventory})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor:       Actor{ID: "usr_consumer", Role: domain.RoleConsumer},
		Lines:       []OrderLine{{ProductID: "prd_a", Quantity: 2}, {ProductID: "prd_b", Quantity: 1}},
		Destination: "12 Insadong-gil, Seoul",
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("PlaceOrder error = %v, want ErrStorage", err)
	}
	if released["prd_a"] != 2 || released["prd_b"] != 1 {
		t.Fatalf("released = %v, want both lines returned", released)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{})

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor:       Actor{ID: "usr_p", Role: domain.RoleProvider},
		Lines:       []OrderLine{{ProductID: "prd_a", Quantity: 1}},
		Destination: "somewhere",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("provider placement error = %v, want ErrForbidden", err)
	}

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor:       Actor{ID: "usr_c", Role: domain.RoleConsumer},
		Destination: "somewhere",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty lines error = %v, want ErrInvalidRequest", err)
	}

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		Actor:       Actor{ID: "usr_c", Role: domain.RoleConsumer},
		Lines:       []OrderLine{{ProductID: "prd_a", Quantity: 1}, {ProductID: "prd_a", Quantity: 2}},
		Destination: "somewhere",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("duplicate line error = %v, want ErrInvalidRequest", err)
	}
}

func TestCancelOrderItemReleasesStock(t *testing.T) {
	item := domain.OrderItem{
		ID:         "itm_1",
		OrderID:    "ord_1",
		ProductID:  "prd_a",
		ConsumerID: "usr_consumer",
		ProviderID: "usr_provider",
		Quantity:   3,
		Status:     domain.OrderItemChecking,
	}
	status := item.Status
	releases := 0

	orderItems := &stubOrderItemRepository{
		findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
			current := item
			current.Status = status
			return current, nil
		},
		updateStatusFn: func(ctx context.Context, orderItemID string, s domain.OrderItemStatus) error {
			status = s
			return nil
		},
	}
	inventory := &stubInventory{
		releaseFn: func(ctx context.Context, productID string, quantity int) error {
			if productID != "prd_a" || quantity != 3 {
				t.Fatalf("release %s x%d, want prd_a x3", productID, quantity)
			}
			releases++
			return nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems, Inventory: inventory})

	actor := Actor{ID: "usr_consumer", Role: domain.RoleConsumer}
	updated, err := svc.CancelOrderItem(context.Background(), actor, "itm_1")
	if err != nil {
		t.Fatalf("CancelOrderItem: %v", err)
	}
	if updated.Status != domain.OrderItemCanceled {
		t.Fatalf("status = %s, want canceled", updated.Status)
	}
	if releases != 1 {
		t.Fatalf("stock released %d times, want exactly once", releases)
	}

	// A second cancel must fail and must not release again.
	if _, err := svc.CancelOrderItem(context.Background(), actor, "itm_1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel error = %v, want ErrInvalidTransition", err)
	}
	if releases != 1 {
		t.Fatalf("stock released %d times after re-cancel, want 1", releases)
	}
}

func TestCancelOrderItemRunsInUnitOfWork(t *testing.T) {
	statusWritten := false
	txCalls := 0

	orderItems := &stubOrderItemRepository{
		findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
			return domain.OrderItem{ID: orderItemID, ProductID: "prd_a", ConsumerID: "usr_consumer", Quantity: 1, Status: domain.OrderItemChecking}, nil
		},
		updateStatusFn: func(ctx context.Context, orderItemID string, s domain.OrderItemStatus) error {
			statusWritten = true
			return nil
		},
	}
	uow := &stubUnitOfWork{
		runInTxFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			txCalls++
			if statusWritten {
				t.Fatal("status was written before the unit of work started")
			}
			return fn(ctx)
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems, UnitOfWork: uow})

	actor := Actor{ID: "usr_consumer", Role: domain.RoleConsumer}
	if _, err := svc.CancelOrderItem(context.Background(), actor, "itm_1"); err != nil {
		t.Fatalf("CancelOrderItem: %v", err)
	}
	if txCalls != 1 {
		t.Fatalf("unit of work ran %d times, want 1", txCalls)
	}
	if !statusWritten {
		t.Fatal("status write did not run inside the unit of work")
	}
}

func TestCancelOrderItemSurfacesReleaseFailure(t *testing.T) {
	statusWrites := 0

	orderItems := &stubOrderItemRepository{
		findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
			return domain.OrderItem{ID: orderItemID, ProductID: "prd_a", ConsumerID: "usr_consumer", Quantity: 2, Status: domain.OrderItemChecking}, nil
		},
		updateStatusFn: func(ctx context.Context, orderItemID string, s domain.OrderItemStatus) error {
			statusWrites++
			return nil
		},
	}
	inventory := &stubInventory{
		releaseFn: func(ctx context.Context, productID string, quantity int) error {
			return errStubBoom
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems, Inventory: inventory})

	actor := Actor{ID: "usr_consumer", Role: domain.RoleConsumer}
	_, err := svc.CancelOrderItem(context.Background(), actor, "itm_1")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("cancel with failed release error = %v, want ErrStorage", err)
	}
	if statusWrites != 1 {
		t.Fatalf("status written %d times, want 1", statusWrites)
	}
}

func TestCancelOrderItemOwnership(t *testing.T) {
	orderItems := &stubOrderItemRepository{
		findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
			return domain.OrderItem{ID: orderItemID, ConsumerID: "usr_owner", Status: domain.OrderItemChecking}, nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems})

	if _, err := svc.CancelOrderItem(context.Background(), Actor{ID: "usr_other", Role: domain.RoleConsumer}, "itm_1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign cancel error = %v, want ErrForbidden", err)
	}
}

func TestUpdateOrderItemStatusRoleMatrix(t *testing.T) {
	current := domain.OrderItemReceived
	orderItems := &stubOrderItemRepository{
		findByIDFn: func(ctx context.Context, orderItemID string) (domain.OrderItem, error) {
			return domain.OrderItem{
				ID:         orderItemID,
				ConsumerID: "usr_consumer",
				ProviderID: "usr_provider",
				Status:     current,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, orderItemID string, s domain.OrderItemStatus) error {
			current = s
			return nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems})

	// The provider owns the item but only admins drive deliveries.
	provider := Actor{ID: "usr_provider", Role: domain.RoleProvider}
	if _, err := svc.UpdateOrderItemStatus(context.Background(), provider, "itm_1", domain.OrderItemDelivering); !errors.Is(err, ErrForbidden) {
		t.Fatalf("provider delivery error = %v, want ErrForbidden", err)
	}

	admin := Actor{ID: "usr_admin", Role: domain.RoleAdmin}
	updated, err := svc.UpdateOrderItemStatus(context.Background(), admin, "itm_1", domain.OrderItemDelivering)
	if err != nil {
		t.Fatalf("admin delivery: %v", err)
	}
	if updated.Status != domain.OrderItemDelivering {
		t.Fatalf("status = %s, want delivering", updated.Status)
	}

	// Refund outcomes are reserved for the refund flow.
	if _, err := svc.UpdateOrderItemStatus(context.Background(), admin, "itm_1", domain.OrderItemRefunded); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("direct refund error = %v, want ErrInvalidRequest", err)
	}
}

func TestListOrdersForConsumer(t *testing.T) {
	users := &stubUserRepository{
		findByIDFn: func(ctx context.Context, userID string) (domain.User, error) {
			if userID != "usr_consumer" {
				return domain.User{}, errStubNotFound
			}
			return domain.User{ID: userID, Role: domain.RoleConsumer}, nil
		},
	}
	orders := &stubOrderRepository{
		listByConsumerFn: func(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
			if filter.Offset != 10 || filter.Limit != 10 {
				t.Fatalf("filter offset/limit = %d/%d, want 10/10", filter.Offset, filter.Limit)
			}
			return domain.Page[domain.Order]{Items: make([]domain.Order, 10), Total: 25}, nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Users: users})

	actor := Actor{ID: "usr_consumer", Role: domain.RoleConsumer}
	listing, err := svc.ListOrdersForConsumer(context.Background(), actor, "usr_consumer", 2)
	if err != nil {
		t.Fatalf("ListOrdersForConsumer: %v", err)
	}
	if listing.Page.TotalPages != 3 || !listing.Page.HasNext || listing.Page.ShownCount != 20 {
		t.Fatalf("page meta = %+v, want totalPages 3, hasNext, shownCount 20", listing.Page)
	}

	if _, err := svc.ListOrdersForConsumer(context.Background(), actor, "usr_other", 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign listing error = %v, want ErrForbidden", err)
	}

	admin := Actor{ID: "usr_admin", Role: domain.RoleAdmin}
	if _, err := svc.ListOrdersForConsumer(context.Background(), admin, "usr_ghost", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown consumer error = %v, want ErrNotFound", err)
	}
}

func TestListOrderItemsForProviderUsesActiveStatuses(t *testing.T) {
	orderItems := &stubOrderItemRepository{
		listByProviderFn: func(ctx context.Context, filter repositories.OrderItemListFilter) (domain.Page[domain.OrderItem], error) {
			if len(filter.Statuses) != len(domain.ActiveOrderItemStatuses) {
				t.Fatalf("statuses = %v, want active set", filter.Statuses)
			}
			if filter.SortOrder != domain.SortAsc {
				t.Fatalf("sort order = %s, want asc", filter.SortOrder)
			}
			return domain.Page[domain.OrderItem]{}, nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{OrderItems: orderItems})

	if _, err := svc.ListOrderItemsForProvider(context.Background(), Actor{ID: "usr_p", Role: domain.RoleProvider}, "usr_p", 1); err != nil {
		t.Fatalf("ListOrderItemsForProvider: %v", err)
	}
}
