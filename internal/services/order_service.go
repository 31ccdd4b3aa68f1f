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

// OrderEvent is published after an order mutation commits.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderItemID string    `json:"orderItemId,omitempty"`
	ConsumerID  string    `json:"consumerId"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// OrderEventPublisher delivers order events to interested subscribers.
// Publishing is best effort; failures are logged and never fail the request.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderServiceDeps wires the order service dependencies.
type OrderServiceDeps struct {
	Orders     repositories.OrderRepository
	OrderItems repositories.OrderItemRepository
	Users      repositories.UserRepository
	Counters   repositories.CounterRepository
	Inventory  InventoryService
	UnitOfWork repositories.UnitOfWork
	Clock      func() time.Time
	IDGen      func() string
	Events     OrderEventPublisher
	Logger     *zap.Logger
}

type orderService struct {
	orders     repositories.OrderRepository
	orderItems repositories.OrderItemRepository
	users      repositories.UserRepository
	counters   repositories.CounterRepository
	inventory  InventoryService
	uow        repositories.UnitOfWork
	clock      func() time.Time
	idGen      func() string
	events     OrderEventPublisher
	logger     *zap.Logger
}

// NewOrderService constructs the order service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service requires order repository")
	}
	if deps.OrderItems == nil {
		return nil, errors.New("order service requires order item repository")
	}
	if deps.Users == nil {
		return nil, errors.New("order service requires user repository")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service requires counter repository")
	}
	if deps.Inventory == nil {
		return nil, errors.New("order service requires inventory service")
	}
	svc := &orderService{
		orders:     deps.Orders,
		orderItems: deps.OrderItems,
		users:      deps.Users,
		counters:   deps.Counters,
		inventory:  deps.Inventory,
		uow:        deps.UnitOfWork,
		clock:      deps.Clock,
		idGen:      deps.IDGen,
		events:     deps.Events,
		logger:     deps.Logger,
	}
	if svc.uow == nil {
		svc.uow = noopUnitOfWork{}
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

// PlaceOrder reserves stock for every line in request order, then writes the
// order and its items in one batch. If any reservation fails, the ones made so
// far are released and nothing is written; if the final write fails, every
// reservation is released.
func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if cmd.Actor.Role != domain.RoleConsumer {
		return domain.Order{}, fmt.Errorf("%w: only consumers place orders", ErrForbidden)
	}
	if len(cmd.Lines) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order requires at least one line", ErrInvalidRequest)
	}
	if strings.TrimSpace(cmd.Destination) == "" {
		return domain.Order{}, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return domain.Order{}, fmt.Errorf("%w: order line requires a product id", ErrInvalidRequest)
		}
		if line.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: order line quantity must be positive", ErrInvalidRequest)
		}
		if _, dup := seen[line.ProductID]; dup {
			return domain.Order{}, fmt.Errorf("%w: duplicate product %s", ErrInvalidRequest, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}

	reserved := make([]repositories.ReservedLine, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		captured, err := s.inventory.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.releaseAll(ctx, reserved)
			return domain.Order{}, err
		}
		reserved = append(reserved, captured)
	}

	sequence, err := s.counters.Next(ctx, "orders")
	if err != nil {
		s.releaseAll(ctx, reserved)
		return domain.Order{}, mapRepositoryError(err)
	}

	now := s.clock().UTC()
	order := domain.Order{
		ID:           orderIDPrefix + s.idGen(),
		OrderNumber:  generateOrderNumber(now, sequence),
		ConsumerID:   cmd.Actor.ID,
		Total:        0,
		Destination:  cmd.Destination,
		DeliveryNote: cmd.DeliveryNote,
		OrderedAt:    displayDate(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	order.Items = make([]domain.OrderItem, 0, len(reserved))
	for _, line := range reserved {
		order.Total += line.UnitPrice * int64(line.Quantity)
		order.Items = append(order.Items, domain.OrderItem{
			ID:          orderItemIDPrefix + s.idGen(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProviderID:  line.ProviderID,
			ConsumerID:  cmd.Actor.ID,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Status:      domain.OrderItemChecking,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.releaseAll(ctx, reserved)
		return domain.Order{}, mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       "order.created",
		OrderID:    order.ID,
		ConsumerID: order.ConsumerID,
		OccurredAt: now,
	})
	return order, nil
}

// CancelOrderItem moves the actor's own order item from checking to canceled
// and returns the reserved stock.
func (s *orderService) CancelOrderItem(ctx context.Context, actor Actor, orderItemID string) (domain.OrderItem, error) {
	item, err := s.orderItems.FindByID(ctx, orderItemID)
	if err != nil {
		return domain.OrderItem{}, mapRepositoryError(err)
	}
	if actor.Role == domain.RoleConsumer && item.ConsumerID != actor.ID {
		return domain.OrderItem{}, fmt.Errorf("%w: order item belongs to another consumer", ErrForbidden)
	}

	return s.transitionItem(ctx, actor, item, domain.OrderItemCanceled)
}

// UpdateOrderItemStatus applies a provider or admin lifecycle transition.
// Refund outcomes are rejected here; they require a paired refund record.
func (s *orderService) UpdateOrderItemStatus(ctx context.Context, actor Actor, orderItemID string, target domain.OrderItemStatus) (domain.OrderItem, error) {
	if target == domain.OrderItemExchanged || target == domain.OrderItemRefunded {
		return domain.OrderItem{}, fmt.Errorf("%w: %s requires a refund request", ErrInvalidRequest, target)
	}

	item, err := s.orderItems.FindByID(ctx, orderItemID)
	if err != nil {
		return domain.OrderItem{}, mapRepositoryError(err)
	}
	switch actor.Role {
	case domain.RoleConsumer:
		if item.ConsumerID != actor.ID {
			return domain.OrderItem{}, fmt.Errorf("%w: order item belongs to another consumer", ErrForbidden)
		}
	case domain.RoleProvider:
		if item.ProviderID != actor.ID {
			return domain.OrderItem{}, fmt.Errorf("%w: order item belongs to another provider", ErrForbidden)
		}
	}

	return s.transitionItem(ctx, actor, item, target)
}

// transitionItem resolves the requested change against the transition table
// and applies the status write plus any stock effect through the unit of
// work, so the pair shares one boundary where the store provides it. Stock is
// released only after the status write succeeds, so a failed write never
// leaks stock back.
func (s *orderService) transitionItem(ctx context.Context, actor Actor, item domain.OrderItem, target domain.OrderItemStatus) (domain.OrderItem, error) {
	effect, err := resolveTransition(item.Status, target, actor.Role)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if effect == effectCreateRefund {
		return domain.OrderItem{}, fmt.Errorf("%w: %s requires a refund request", ErrInvalidRequest, target)
	}

	if err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orderItems.UpdateStatus(ctx, item.ID, target); err != nil {
			return mapRepositoryError(err)
		}
		if effect == effectReleaseStock {
			if err := s.inventory.Release(ctx, item.ProductID, item.Quantity); err != nil {
				contextLogger(ctx, s.logger).Error("stock release after cancellation failed",
					zap.String("order_item_id", item.ID),
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				return fmt.Errorf("%w: stock release failed after %s was recorded for item %s", ErrStorage, target, item.ID)
			}
		}
		return nil
	}); err != nil {
		return domain.OrderItem{}, err
	}

	now := s.clock().UTC()
	item.Status = target
	item.UpdatedAt = now

	s.publishEvent(ctx, OrderEvent{
		Type:        "order.item.status.changed",
		OrderID:     item.OrderID,
		OrderItemID: item.ID,
		ConsumerID:  item.ConsumerID,
		Status:      string(target),
		OccurredAt:  now,
	})
	return item, nil
}

func (s *orderService) FindOrder(ctx context.Context, actor Actor, orderID string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err)
	}
	if actor.Role != domain.RoleAdmin && order.ConsumerID != actor.ID {
		return domain.Order{}, fmt.Errorf("%w: order belongs to another consumer", ErrForbidden)
	}
	return order, nil
}

func (s *orderService) FindOrderItem(ctx context.Context, actor Actor, orderItemID string) (domain.OrderItem, error) {
	item, err := s.orderItems.FindByID(ctx, orderItemID)
	if err != nil {
		return domain.OrderItem{}, mapRepositoryError(err)
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleProvider:
		if item.ProviderID != actor.ID {
			return domain.OrderItem{}, fmt.Errorf("%w: order item belongs to another provider", ErrForbidden)
		}
	default:
		if item.ConsumerID != actor.ID {
			return domain.OrderItem{}, fmt.Errorf("%w: order item belongs to another consumer", ErrForbidden)
		}
	}
	return item, nil
}

func (s *orderService) ListOrdersForConsumer(ctx context.Context, actor Actor, consumerID string, page int) (Listing[domain.Order], error) {
	if actor.Role != domain.RoleAdmin && actor.ID != consumerID {
		return Listing[domain.Order]{}, fmt.Errorf("%w: orders belong to another consumer", ErrForbidden)
	}
	if _, err := s.users.FindByID(ctx, consumerID); err != nil {
		return Listing[domain.Order]{}, mapRepositoryError(err)
	}

	page = normalisePage(page)
	result, err := s.orders.ListByConsumer(ctx, repositories.OrderListFilter{
		ConsumerID: consumerID,
		Offset:     (page - 1) * defaultPageSize,
		Limit:      defaultPageSize,
	})
	if err != nil {
		return Listing[domain.Order]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, defaultPageSize), nil
}

func (s *orderService) ListOrderItemsForProvider(ctx context.Context, actor Actor, providerID string, page int) (Listing[domain.OrderItem], error) {
	if actor.Role != domain.RoleAdmin && actor.ID != providerID {
		return Listing[domain.OrderItem]{}, fmt.Errorf("%w: order items belong to another provider", ErrForbidden)
	}

	page = normalisePage(page)
	result, err := s.orderItems.ListByProvider(ctx, repositories.OrderItemListFilter{
		ProviderID: providerID,
		Statuses:   domain.ActiveOrderItemStatuses,
		SortOrder:  domain.SortAsc,
		Offset:     (page - 1) * defaultPageSize,
		Limit:      defaultPageSize,
	})
	if err != nil {
		return Listing[domain.OrderItem]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, defaultPageSize), nil
}

func (s *orderService) releaseAll(ctx context.Context, reserved []repositories.ReservedLine) {
	for _, line := range reserved {
		if err := s.inventory.Release(ctx, line.ProductID, line.Quantity); err != nil {
			contextLogger(ctx, s.logger).Error("compensating stock release failed",
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		contextLogger(ctx, s.logger).Warn("order event publish failed",
			zap.String("event_type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

// generateOrderNumber renders the human-readable order number from the year
// and a monotonic sequence.
func generateOrderNumber(now time.Time, sequence int64) string {
	return fmt.Sprintf("SM-%04d-%06d", now.Year(), sequence)
}

// noopUnitOfWork runs the function without a transactional boundary.
type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
