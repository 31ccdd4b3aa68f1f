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

// RefundEvent is published after a refund or exchange request commits.
type RefundEvent struct {
	Type        string    `json:"type"`
	RefundID    string    `json:"refundId"`
	OrderItemID string    `json:"orderItemId"`
	RefundeeID  string    `json:"refundeeId"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// RefundEventPublisher delivers refund events to interested subscribers.
type RefundEventPublisher interface {
	PublishRefundEvent(ctx context.Context, event RefundEvent) error
}

// RefundServiceDeps wires the refund coordinator dependencies.
type RefundServiceDeps struct {
	Refunds    repositories.RefundRepository
	OrderItems repositories.OrderItemRepository
	Users      repositories.UserRepository
	Clock      func() time.Time
	IDGen      func() string
	Events     RefundEventPublisher
	Logger     *zap.Logger
}

type refundService struct {
	refunds    repositories.RefundRepository
	orderItems repositories.OrderItemRepository
	users      repositories.UserRepository
	clock      func() time.Time
	idGen      func() string
	events     RefundEventPublisher
	logger     *zap.Logger
	sanitizer  *bluemonday.Policy
}

// NewRefundService constructs the refund coordinator.
func NewRefundService(deps RefundServiceDeps) (RefundService, error) {
	if deps.Refunds == nil {
		return nil, errors.New("refund service requires refund repository")
	}
	if deps.OrderItems == nil {
		return nil, errors.New("refund service requires order item repository")
	}
	if deps.Users == nil {
		return nil, errors.New("refund service requires user repository")
	}
	svc := &refundService{
		refunds:    deps.Refunds,
		orderItems: deps.OrderItems,
		users:      deps.Users,
		clock:      deps.Clock,
		idGen:      deps.IDGen,
		events:     deps.Events,
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

// RequestRefund records a refund or exchange and moves the order item into
// the matching terminal state. Preconditions run in a fixed order: role,
// request shape, item existence and ownership, then prior finalization. The
// refund row is written first and removed again if the item transition fails,
// so a refund record never outlives a failed transition.
func (s *refundService) RequestRefund(ctx context.Context, cmd RequestRefundCommand) (domain.Refund, error) {
	if cmd.Actor.Role == domain.RoleProvider {
		return domain.Refund{}, fmt.Errorf("%w: providers may not request refunds", ErrForbidden)
	}

	if err := validateRefundShape(cmd); err != nil {
		return domain.Refund{}, err
	}

	item, err := s.orderItems.FindByID(ctx, cmd.OrderItemID)
	if err != nil {
		return domain.Refund{}, mapRepositoryError(err)
	}
	if cmd.Actor.Role == domain.RoleConsumer && item.ConsumerID != cmd.Actor.ID {
		return domain.Refund{}, fmt.Errorf("%w: order item belongs to another consumer", ErrForbidden)
	}
	if item.Status == domain.OrderItemExchanged || item.Status == domain.OrderItemRefunded {
		return domain.Refund{}, fmt.Errorf("%w: order item is already %s", ErrAlreadyFinalized, item.Status)
	}

	target := cmd.Status.OrderItemStatus()
	effect, err := resolveTransition(item.Status, target, cmd.Actor.Role)
	if err != nil {
		return domain.Refund{}, err
	}
	if effect != effectCreateRefund {
		return domain.Refund{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, target)
	}

	now := s.clock().UTC()
	refund := domain.Refund{
		ID:                 refundIDPrefix + s.idGen(),
		OrderItemID:        item.ID,
		RefundeeID:         item.ConsumerID,
		Status:             cmd.Status,
		PickupDay:          cmd.PickupDay,
		PickupPlace:        cmd.PickupPlace,
		RefundPay:          cmd.RefundPay,
		ProblemTitle:       s.sanitizer.Sanitize(cmd.ProblemTitle),
		ProblemDescription: s.sanitizer.Sanitize(cmd.ProblemDescription),
		RefundedAt:         displayDate(now),
		CreatedAt:          now,
	}

	if err := s.refunds.Insert(ctx, refund); err != nil {
		return domain.Refund{}, mapRepositoryError(err)
	}
	if err := s.orderItems.UpdateStatus(ctx, item.ID, target); err != nil {
		if delErr := s.refunds.Delete(ctx, refund.ID); delErr != nil {
			contextLogger(ctx, s.logger).Error("orphaned refund record cleanup failed",
				zap.String("refund_id", refund.ID),
				zap.String("order_item_id", item.ID),
				zap.Error(delErr))
		}
		return domain.Refund{}, mapRepositoryError(err)
	}

	s.publishEvent(ctx, RefundEvent{
		Type:        "refund.requested",
		RefundID:    refund.ID,
		OrderItemID: refund.OrderItemID,
		RefundeeID:  refund.RefundeeID,
		Status:      string(refund.Status),
		OccurredAt:  now,
	})
	return refund, nil
}

func (s *refundService) ListRefundsForConsumer(ctx context.Context, actor Actor, consumerID string, page int) (Listing[domain.Refund], error) {
	if actor.Role != domain.RoleAdmin && actor.ID != consumerID {
		return Listing[domain.Refund]{}, fmt.Errorf("%w: refunds belong to another consumer", ErrForbidden)
	}
	if _, err := s.users.FindByID(ctx, consumerID); err != nil {
		return Listing[domain.Refund]{}, mapRepositoryError(err)
	}

	page = normalisePage(page)
	result, err := s.refunds.ListByRefundee(ctx, repositories.RefundListFilter{
		RefundeeID: consumerID,
		Offset:     (page - 1) * defaultPageSize,
		Limit:      defaultPageSize,
	})
	if err != nil {
		return Listing[domain.Refund]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, defaultPageSize), nil
}

// ListRefundsForProvider pages the provider's order items in a terminal
// cancellation or refund state, oldest first.
func (s *refundService) ListRefundsForProvider(ctx context.Context, actor Actor, providerID string, page int) (Listing[domain.OrderItem], error) {
	if actor.Role != domain.RoleAdmin && actor.ID != providerID {
		return Listing[domain.OrderItem]{}, fmt.Errorf("%w: order items belong to another provider", ErrForbidden)
	}

	page = normalisePage(page)
	result, err := s.orderItems.ListByProvider(ctx, repositories.OrderItemListFilter{
		ProviderID: providerID,
		Statuses:   domain.ClosedOrderItemStatuses,
		SortOrder:  domain.SortAsc,
		Offset:     (page - 1) * defaultPageSize,
		Limit:      defaultPageSize,
	})
	if err != nil {
		return Listing[domain.OrderItem]{}, mapRepositoryError(err)
	}
	return listingFromPage(result, page, defaultPageSize), nil
}

// validateRefundShape enforces the field pairing per refund kind: exchanges
// carry pickup details and no payment amount, monetary refunds the reverse.
func validateRefundShape(cmd RequestRefundCommand) error {
	if strings.TrimSpace(cmd.OrderItemID) == "" {
		return fmt.Errorf("%w: order item id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(cmd.ProblemTitle) == "" {
		return fmt.Errorf("%w: problem title is required", ErrInvalidRequest)
	}

	switch cmd.Status {
	case domain.RefundExchanged:
		if strings.TrimSpace(cmd.PickupDay) == "" || strings.TrimSpace(cmd.PickupPlace) == "" {
			return fmt.Errorf("%w: exchange requires pickup day and place", ErrInvalidRequest)
		}
		if cmd.RefundPay != 0 {
			return fmt.Errorf("%w: exchange must not carry a refund amount", ErrInvalidRequest)
		}
	case domain.RefundRefunded:
		if cmd.RefundPay <= 0 {
			return fmt.Errorf("%w: refund requires a positive refund amount", ErrInvalidRequest)
		}
		if strings.TrimSpace(cmd.PickupDay) != "" || strings.TrimSpace(cmd.PickupPlace) != "" {
			return fmt.Errorf("%w: refund must not carry pickup details", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown refund status %q", ErrInvalidRequest, cmd.Status)
	}
	return nil
}

func (s *refundService) publishEvent(ctx context.Context, event RefundEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRefundEvent(ctx, event); err != nil {
		contextLogger(ctx, s.logger).Warn("refund event publish failed",
			zap.String("event_type", event.Type),
			zap.String("refund_id", event.RefundID),
			zap.Error(err))
	}
}
