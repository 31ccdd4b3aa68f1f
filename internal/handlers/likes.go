package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/services"
)

// LikeHandlers exposes the liked-products endpoints.
type LikeHandlers struct {
	authn *auth.Authenticator
	likes services.LikeService
}

// NewLikeHandlers constructs the like handlers.
func NewLikeHandlers(authn *auth.Authenticator, likes services.LikeService) *LikeHandlers {
	return &LikeHandlers{authn: authn, likes: likes}
}

// Routes wires the /likes endpoints onto the provided router.
func (h *LikeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.listLiked)
	r.Put("/{productID}", h.like)
	r.Delete("/{productID}", h.unlike)
}

func (h *LikeHandlers) listLiked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	products, err := h.likes.ListLiked(ctx, actor)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildProductPayloads(products))
}

func (h *LikeHandlers) like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.likes.Like(ctx, actor, chi.URLParam(r, "productID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LikeHandlers) unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.likes.Unlike(ctx, actor, chi.URLParam(r, "productID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
