package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/platform/httpx"
	"github.com/seoulmarket/api/internal/services"
)

// RefundHandlers exposes the refund and exchange endpoints.
type RefundHandlers struct {
	authn   *auth.Authenticator
	refunds services.RefundService
}

// NewRefundHandlers constructs the refund handlers.
func NewRefundHandlers(authn *auth.Authenticator, refunds services.RefundService) *RefundHandlers {
	return &RefundHandlers{authn: authn, refunds: refunds}
}

// Routes wires the /refunds endpoints onto the provided router.
func (h *RefundHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.requestRefund)
	r.Get("/", h.listRefunds)
	r.Get("/items", h.listClosedItems)
}

type refundPayload struct {
	ID                 string `json:"id"`
	OrderItemID        string `json:"orderItemId"`
	RefundeeID         string `json:"refundeeId"`
	Status             string `json:"status"`
	PickupDay          string `json:"pickupDay,omitempty"`
	PickupPlace        string `json:"pickupPlace,omitempty"`
	RefundPay          int64  `json:"refundPay,omitempty"`
	ProblemTitle       string `json:"problemTitle"`
	ProblemDescription string `json:"problemDescription,omitempty"`
	RefundedAt         string `json:"refundedAt"`
}

func buildRefundPayload(refund domain.Refund) refundPayload {
	return refundPayload{
		ID:                 refund.ID,
		OrderItemID:        refund.OrderItemID,
		RefundeeID:         refund.RefundeeID,
		Status:             string(refund.Status),
		PickupDay:          refund.PickupDay,
		PickupPlace:        refund.PickupPlace,
		RefundPay:          refund.RefundPay,
		ProblemTitle:       refund.ProblemTitle,
		ProblemDescription: refund.ProblemDescription,
		RefundedAt:         refund.RefundedAt,
	}
}

type requestRefundRequest struct {
	OrderItemID        string `json:"orderItemId"`
	Status             string `json:"status"`
	PickupDay          string `json:"pickupDay"`
	PickupPlace        string `json:"pickupPlace"`
	RefundPay          int64  `json:"refundPay"`
	ProblemTitle       string `json:"problemTitle"`
	ProblemDescription string `json:"problemDescription"`
}

func (h *RefundHandlers) requestRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req requestRefundRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status, valid := domain.ParseRefundStatus(req.Status)
	if !valid {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be exchanged or refunded", http.StatusBadRequest))
		return
	}

	refund, err := h.refunds.RequestRefund(ctx, services.RequestRefundCommand{
		Actor:              actor,
		OrderItemID:        req.OrderItemID,
		Status:             status,
		PickupDay:          req.PickupDay,
		PickupPlace:        req.PickupPlace,
		RefundPay:          req.RefundPay,
		ProblemTitle:       req.ProblemTitle,
		ProblemDescription: req.ProblemDescription,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusCreated, buildRefundPayload(refund))
}

// listRefunds pages the consumer's own refund records.
func (h *RefundHandlers) listRefunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	consumerID := actor.ID
	if requested := r.URL.Query().Get("consumer"); requested != "" {
		consumerID = requested
	}

	listing, err := h.refunds.ListRefundsForConsumer(ctx, actor, consumerID, pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]refundPayload, 0, len(listing.Items))
	for _, refund := range listing.Items {
		payloads = append(payloads, buildRefundPayload(refund))
	}
	writeListResponse(w, http.StatusOK, payloads, listing.Page)
}

// listClosedItems pages the provider's canceled, exchanged, and refunded items.
func (h *RefundHandlers) listClosedItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	providerID := actor.ID
	if requested := r.URL.Query().Get("provider"); requested != "" {
		providerID = requested
	}

	listing, err := h.refunds.ListRefundsForProvider(ctx, actor, providerID, pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeListResponse(w, http.StatusOK, buildOrderItemPayloads(listing.Items), listing.Page)
}
