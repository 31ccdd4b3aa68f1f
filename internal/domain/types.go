package domain

import (
	"time"
)

// Role identifies the authorisation level of an authenticated actor.
type Role string

const (
	// RoleConsumer buys products and owns orders, refunds, reviews, and likes.
	RoleConsumer Role = "consumer"
	// RoleProvider sells products and accepts incoming order items.
	RoleProvider Role = "provider"
	// RoleAdmin manages categories and drives deliveries.
	RoleAdmin Role = "admin"
)

// ParseRole validates the raw role string stored in tokens and user documents.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleConsumer, RoleProvider, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductSort names the supported orderings for product listings.
type ProductSort string

const (
	ProductSortCreatedDesc ProductSort = "createdAt_desc"
	ProductSortPriceDesc   ProductSort = "price_desc"
	ProductSortPriceAsc    ProductSort = "price_asc"
)

// User is an account profile. PasswordHash never leaves the repository layer
// except for credential checks in the user service.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Language     string
	PhoneNumber  string
	Address      string
	Bio          string
	UserImg      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category groups products under a slug derived from its name.
type Category struct {
	ID        string
	Name      string
	Slug      string
	CoverImg  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is a sellable item owned by a provider.
//
// Stock is a non-negative count mutated exclusively through the inventory
// ledger operations (ReserveStock/ReleaseStock); Price is in minor currency
// units. AvgRating and ReviewCount form the running review aggregate.
type Product struct {
	ID          string
	Name        string
	Price       int64
	Stock       int
	Description string
	BigImg      string
	ProviderID  string
	CategoryID  string
	AvgRating   float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItemStatus enumerates the lifecycle states of a single order item.
type OrderItemStatus string

const (
	// OrderItemChecking is the initial state while the provider confirms.
	OrderItemChecking OrderItemStatus = "checking"
	// OrderItemReceived means the provider accepted the order item.
	OrderItemReceived OrderItemStatus = "received"
	// OrderItemDelivering means the shipment is on its way.
	OrderItemDelivering OrderItemStatus = "delivering"
	// OrderItemDelivered means the shipment arrived.
	OrderItemDelivered OrderItemStatus = "delivered"
	// OrderItemCanceled is terminal; reserved stock has been returned.
	OrderItemCanceled OrderItemStatus = "canceled"
	// OrderItemExchanged is terminal; an exchange refund record exists.
	OrderItemExchanged OrderItemStatus = "exchanged"
	// OrderItemRefunded is terminal; a monetary refund record exists.
	OrderItemRefunded OrderItemStatus = "refunded"
)

// ParseOrderItemStatus validates a raw status string.
func ParseOrderItemStatus(raw string) (OrderItemStatus, bool) {
	switch OrderItemStatus(raw) {
	case OrderItemChecking, OrderItemReceived, OrderItemDelivering,
		OrderItemDelivered, OrderItemCanceled, OrderItemExchanged, OrderItemRefunded:
		return OrderItemStatus(raw), true
	}
	return "", false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s OrderItemStatus) IsTerminal() bool {
	switch s {
	case OrderItemCanceled, OrderItemExchanged, OrderItemRefunded:
		return true
	}
	return false
}

// ActiveOrderItemStatuses are the states shown on a provider's open-orders
// listing.
var ActiveOrderItemStatuses = []OrderItemStatus{
	OrderItemChecking,
	OrderItemReceived,
	OrderItemDelivering,
	OrderItemDelivered,
}

// ClosedOrderItemStatuses are the terminal states shown on a provider's
// refund/cancellation listing.
var ClosedOrderItemStatuses = []OrderItemStatus{
	OrderItemCanceled,
	OrderItemExchanged,
	OrderItemRefunded,
}

// Order is the aggregate created by a placement request. Total is the sum of
// line totals captured at reservation time and immutable afterwards.
// OrderedAt is the human-readable display string derived from CreatedAt.
type Order struct {
	ID           string
	OrderNumber  string
	ConsumerID   string
	Items        []OrderItem
	Total        int64
	Destination  string
	DeliveryNote string
	OrderedAt    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem is one product/quantity line within an order. ConsumerID and
// ProviderID are denormalised from the order and product for query paths.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	ProviderID  string
	ConsumerID  string
	UnitPrice   int64
	Quantity    int
	Status      OrderItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RefundStatus distinguishes an exchange request from a monetary refund.
type RefundStatus string

const (
	RefundExchanged RefundStatus = "exchanged"
	RefundRefunded  RefundStatus = "refunded"
)

// ParseRefundStatus validates a raw refund status string.
func ParseRefundStatus(raw string) (RefundStatus, bool) {
	switch RefundStatus(raw) {
	case RefundExchanged, RefundRefunded:
		return RefundStatus(raw), true
	}
	return "", false
}

// OrderItemStatus returns the terminal order-item state matching the refund.
func (s RefundStatus) OrderItemStatus() OrderItemStatus {
	if s == RefundExchanged {
		return OrderItemExchanged
	}
	return OrderItemRefunded
}

// Refund records a single exchange or monetary refund request for an order
// item. Exchange requests carry the pickup fields and no payment amount;
// monetary refunds carry the payment amount and no pickup fields. RefundedAt
// is the display string derived from CreatedAt; a refund row is written once
// and never overwritten.
type Refund struct {
	ID                 string
	OrderItemID        string
	RefundeeID         string
	Status             RefundStatus
	PickupDay          string
	PickupPlace        string
	RefundPay          int64
	ProblemTitle       string
	ProblemDescription string
	RefundedAt         string
	CreatedAt          time.Time
}

// Review is a consumer comment with a 1-5 rating on a purchased product.
type Review struct {
	ID          string
	ProductID   string
	CommenterID string
	Rating      int
	Content     string
	ReviewedAt  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Like holds the set of products a user marked as liked. One document per
// user, created together with the account.
type Like struct {
	UserID     string
	ProductIDs []string
	UpdatedAt  time.Time
}

// Page packages one page of an offset/limit query together with the total
// number of matching rows, which the pagination calculator turns into page
// metadata.
type Page[T any] struct {
	Items []T
	Total int64
}
