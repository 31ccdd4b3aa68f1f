package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/services"
)

// CategoryHandlers exposes the category endpoints. Reads are public; writes
// require an admin token.
type CategoryHandlers struct {
	authn      *auth.Authenticator
	categories services.CategoryService
	products   services.ProductService
}

// NewCategoryHandlers constructs the category handlers.
func NewCategoryHandlers(authn *auth.Authenticator, categories services.CategoryService, products services.ProductService) *CategoryHandlers {
	return &CategoryHandlers{authn: authn, categories: categories, products: products}
}

// Routes wires the /categories endpoints onto the provided router.
func (h *CategoryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listCategories)
	r.Get("/{slug}", h.getCategory)
	r.Get("/{slug}/products", h.listProducts)

	if h.authn != nil {
		r.Group(func(g chi.Router) {
			g.Use(h.authn.RequireAuth(domain.RoleAdmin))
			g.Post("/", h.createCategory)
			g.Patch("/{categoryID}", h.updateCategory)
			g.Delete("/{categoryID}", h.deleteCategory)
		})
	}
}

type categoryPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	CoverImg string `json:"coverImg,omitempty"`
}

func buildCategoryPayload(category domain.Category) categoryPayload {
	return categoryPayload{
		ID:       category.ID,
		Name:     category.Name,
		Slug:     category.Slug,
		CoverImg: category.CoverImg,
	}
}

func (h *CategoryHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.categories.ListCategories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		payloads = append(payloads, buildCategoryPayload(category))
	}
	writeObjectResponse(w, http.StatusOK, payloads)
}

func (h *CategoryHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, err := h.categories.FindCategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *CategoryHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, err := h.categories.FindCategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	listing, err := h.products.ListByCategory(ctx, category.ID, productSortParam(r), pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeListResponse(w, http.StatusOK, buildProductPayloads(listing.Items), listing.Page)
}

type categoryRequest struct {
	Name     string `json:"name"`
	CoverImg string `json:"coverImg"`
}

func (h *CategoryHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	category, err := h.categories.CreateCategory(ctx, services.CategoryCommand{
		Actor:    actor,
		Name:     req.Name,
		CoverImg: req.CoverImg,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusCreated, buildCategoryPayload(category))
}

func (h *CategoryHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	category, err := h.categories.UpdateCategory(ctx, actor, chi.URLParam(r, "categoryID"), services.CategoryCommand{
		Actor:    actor,
		Name:     req.Name,
		CoverImg: req.CoverImg,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *CategoryHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(ctx, actor, chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
