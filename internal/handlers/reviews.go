package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/services"
)

// ReviewHandlers exposes review creation and maintenance. Reading reviews
// happens under /products/{productID}/reviews.
type ReviewHandlers struct {
	authn   *auth.Authenticator
	reviews services.ReviewService
}

// NewReviewHandlers constructs the review handlers.
func NewReviewHandlers(authn *auth.Authenticator, reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{authn: authn, reviews: reviews}
}

// Routes wires the /reviews endpoints onto the provided router.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.listReviews)
	r.Post("/", h.createReview)
	r.Patch("/{reviewID}", h.updateReview)
	r.Delete("/{reviewID}", h.deleteReview)
}

// listReviews pages the caller's own reviews; admins may page any user's
// with ?commenter=.
func (h *ReviewHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	commenterID := actor.ID
	if requested := r.URL.Query().Get("commenter"); requested != "" {
		commenterID = requested
	}

	listing, err := h.reviews.ListByCommenter(ctx, actor, commenterID, pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeListResponse(w, http.StatusOK, buildReviewPayloads(listing.Items), listing.Page)
}

type reviewPayload struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	CommenterID string `json:"commenterId"`
	Rating      int    `json:"rating"`
	Content     string `json:"content"`
	ReviewedAt  string `json:"reviewedAt"`
}

func buildReviewPayload(review domain.Review) reviewPayload {
	return reviewPayload{
		ID:          review.ID,
		ProductID:   review.ProductID,
		CommenterID: review.CommenterID,
		Rating:      review.Rating,
		Content:     review.Content,
		ReviewedAt:  review.ReviewedAt,
	}
}

func buildReviewPayloads(reviews []domain.Review) []reviewPayload {
	payloads := make([]reviewPayload, 0, len(reviews))
	for _, review := range reviews {
		payloads = append(payloads, buildReviewPayload(review))
	}
	return payloads
}

type createReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Content   string `json:"content"`
}

func (h *ReviewHandlers) createReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	review, err := h.reviews.CreateReview(ctx, services.CreateReviewCommand{
		Actor:     actor,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Content:   req.Content,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusCreated, buildReviewPayload(review))
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Content *string `json:"content"`
}

func (h *ReviewHandlers) updateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req updateReviewRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	review, err := h.reviews.UpdateReview(ctx, services.UpdateReviewCommand{
		Actor:    actor,
		ReviewID: chi.URLParam(r, "reviewID"),
		Rating:   req.Rating,
		Content:  req.Content,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildReviewPayload(review))
}

func (h *ReviewHandlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(ctx, actor, chi.URLParam(r, "reviewID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
