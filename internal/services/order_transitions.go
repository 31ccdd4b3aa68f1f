package services

import (
	"fmt"

	"github.com/seoulmarket/api/internal/domain"
)

// transitionEffect is the side effect attached to a permitted status change.
type transitionEffect int

const (
	effectNone transitionEffect = iota
	// effectReleaseStock returns the item's reserved quantity to the product.
	effectReleaseStock
	// effectCreateRefund requires a paired refund record; only the refund
	// coordinator performs transitions carrying this effect.
	effectCreateRefund
)

type transitionKey struct {
	from domain.OrderItemStatus
	to   domain.OrderItemStatus
	role domain.Role
}

// orderItemTransitions is the exhaustive table of permitted status changes.
// Any (current, requested, role) combination not listed here is rejected.
var orderItemTransitions = map[transitionKey]transitionEffect{
	// The owning consumer may cancel while the provider is still checking.
	{domain.OrderItemChecking, domain.OrderItemCanceled, domain.RoleConsumer}: effectReleaseStock,

	// The provider accepts the order item.
	{domain.OrderItemChecking, domain.OrderItemReceived, domain.RoleProvider}: effectNone,

	// Admins drive the delivery states.
	{domain.OrderItemReceived, domain.OrderItemDelivering, domain.RoleAdmin}:   effectNone,
	{domain.OrderItemReceived, domain.OrderItemDelivered, domain.RoleAdmin}:    effectNone,
	{domain.OrderItemDelivering, domain.OrderItemDelivered, domain.RoleAdmin}:  effectNone,
	{domain.OrderItemDelivered, domain.OrderItemDelivering, domain.RoleAdmin}:  effectNone,

	// Refund outcomes reach any non-terminal item, requested by the owning
	// consumer or an admin through the refund coordinator.
	{domain.OrderItemChecking, domain.OrderItemExchanged, domain.RoleConsumer}:   effectCreateRefund,
	{domain.OrderItemChecking, domain.OrderItemRefunded, domain.RoleConsumer}:    effectCreateRefund,
	{domain.OrderItemReceived, domain.OrderItemExchanged, domain.RoleConsumer}:   effectCreateRefund,
	{domain.OrderItemReceived, domain.OrderItemRefunded, domain.RoleConsumer}:    effectCreateRefund,
	{domain.OrderItemDelivering, domain.OrderItemExchanged, domain.RoleConsumer}: effectCreateRefund,
	{domain.OrderItemDelivering, domain.OrderItemRefunded, domain.RoleConsumer}:  effectCreateRefund,
	{domain.OrderItemDelivered, domain.OrderItemExchanged, domain.RoleConsumer}:  effectCreateRefund,
	{domain.OrderItemDelivered, domain.OrderItemRefunded, domain.RoleConsumer}:   effectCreateRefund,
	{domain.OrderItemChecking, domain.OrderItemExchanged, domain.RoleAdmin}:      effectCreateRefund,
	{domain.OrderItemChecking, domain.OrderItemRefunded, domain.RoleAdmin}:       effectCreateRefund,
	{domain.OrderItemReceived, domain.OrderItemExchanged, domain.RoleAdmin}:      effectCreateRefund,
	{domain.OrderItemReceived, domain.OrderItemRefunded, domain.RoleAdmin}:       effectCreateRefund,
	{domain.OrderItemDelivering, domain.OrderItemExchanged, domain.RoleAdmin}:    effectCreateRefund,
	{domain.OrderItemDelivering, domain.OrderItemRefunded, domain.RoleAdmin}:     effectCreateRefund,
	{domain.OrderItemDelivered, domain.OrderItemExchanged, domain.RoleAdmin}:     effectCreateRefund,
	{domain.OrderItemDelivered, domain.OrderItemRefunded, domain.RoleAdmin}:      effectCreateRefund,
}

// resolveTransition checks the table and fails closed. A terminal current
// state always rejects. On a miss the error depends on whether the role can
// ever request the target at all: a role-impossible target is a permission
// failure, a role-legal target from the wrong state is a transition failure.
func resolveTransition(from, to domain.OrderItemStatus, role domain.Role) (transitionEffect, error) {
	if from.IsTerminal() {
		return effectNone, fmt.Errorf("%w: item already %s", ErrInvalidTransition, from)
	}

	if effect, ok := orderItemTransitions[transitionKey{from: from, to: to, role: role}]; ok {
		return effect, nil
	}

	if !roleCanRequest(role, to) {
		return effectNone, fmt.Errorf("%w: role %s may not set status %s", ErrForbidden, role, to)
	}
	return effectNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// roleCanRequest reports whether any table entry lets the role reach the
// target status from some state.
func roleCanRequest(role domain.Role, to domain.OrderItemStatus) bool {
	for key := range orderItemTransitions {
		if key.role == role && key.to == to {
			return true
		}
	}
	return false
}
