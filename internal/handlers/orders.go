package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/platform/httpx"
	"github.com/seoulmarket/api/internal/services"
)

// OrderHandlers exposes order placement and the order-item lifecycle.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
}

// NewOrderHandlers constructs the order handlers.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/items", h.listOrderItems)
	r.Get("/items/{orderItemID}", h.getOrderItem)
	r.Post("/items/{orderItemID}/cancel", h.cancelOrderItem)
	r.Put("/items/{orderItemID}/status", h.updateOrderItemStatus)
}

type orderItemPayload struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProviderID  string `json:"providerId"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type orderPayload struct {
	ID           string             `json:"id"`
	OrderNumber  string             `json:"orderNumber"`
	ConsumerID   string             `json:"consumerId"`
	Items        []orderItemPayload `json:"items"`
	Total        int64              `json:"total"`
	Destination  string             `json:"destination"`
	DeliveryNote string             `json:"deliveryNote,omitempty"`
	OrderedAt    string             `json:"orderedAt"`
}

func buildOrderItemPayload(item domain.OrderItem) orderItemPayload {
	return orderItemPayload{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProviderID:  item.ProviderID,
		UnitPrice:   item.UnitPrice,
		Quantity:    item.Quantity,
		Status:      string(item.Status),
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

func buildOrderItemPayloads(items []domain.OrderItem) []orderItemPayload {
	payloads := make([]orderItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildOrderItemPayload(item))
	}
	return payloads
}

func buildOrderPayload(order domain.Order) orderPayload {
	return orderPayload{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		ConsumerID:   order.ConsumerID,
		Items:        buildOrderItemPayloads(order.Items),
		Total:        order.Total,
		Destination:  order.Destination,
		DeliveryNote: order.DeliveryNote,
		OrderedAt:    order.OrderedAt,
	}
}

type placeOrderRequest struct {
	Lines []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"lines"`
	Destination  string `json:"destination"`
	DeliveryNote string `json:"deliveryNote"`
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		Actor:        actor,
		Lines:        lines,
		Destination:  req.Destination,
		DeliveryNote: req.DeliveryNote,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusCreated, buildOrderPayload(order))
}

// listOrders pages the consumer's own order history.
func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	consumerID := actor.ID
	if requested := r.URL.Query().Get("consumer"); requested != "" {
		consumerID = requested
	}

	listing, err := h.orders.ListOrdersForConsumer(ctx, actor, consumerID, pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]orderPayload, 0, len(listing.Items))
	for _, order := range listing.Items {
		payloads = append(payloads, buildOrderPayload(order))
	}
	writeListResponse(w, http.StatusOK, payloads, listing.Page)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	order, err := h.orders.FindOrder(ctx, actor, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildOrderPayload(order))
}

// listOrderItems pages the provider's open order items.
func (h *OrderHandlers) listOrderItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	providerID := actor.ID
	if requested := r.URL.Query().Get("provider"); requested != "" {
		providerID = requested
	}

	listing, err := h.orders.ListOrderItemsForProvider(ctx, actor, providerID, pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeListResponse(w, http.StatusOK, buildOrderItemPayloads(listing.Items), listing.Page)
}

func (h *OrderHandlers) getOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	item, err := h.orders.FindOrderItem(ctx, actor, chi.URLParam(r, "orderItemID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildOrderItemPayload(item))
}

func (h *OrderHandlers) cancelOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	item, err := h.orders.CancelOrderItem(ctx, actor, chi.URLParam(r, "orderItemID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildOrderItemPayload(item))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) updateOrderItemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status, valid := domain.ParseOrderItemStatus(req.Status)
	if !valid {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order item status", http.StatusBadRequest))
		return
	}

	item, err := h.orders.UpdateOrderItemStatus(ctx, actor, chi.URLParam(r, "orderItemID"), status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildOrderItemPayload(item))
}
