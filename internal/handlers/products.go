package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/services"
)

// ProductHandlers exposes the catalogue endpoints. Reads are public; writes
// require a provider (or admin) token.
type ProductHandlers struct {
	authn    *auth.Authenticator
	products services.ProductService
	reviews  services.ReviewService
}

// NewProductHandlers constructs the catalogue handlers.
func NewProductHandlers(authn *auth.Authenticator, products services.ProductService, reviews services.ReviewService) *ProductHandlers {
	return &ProductHandlers{authn: authn, products: products, reviews: reviews}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.search)
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/reviews", h.listReviews)

	if h.authn != nil {
		r.Group(func(g chi.Router) {
			g.Use(h.authn.RequireAuth(domain.RoleProvider, domain.RoleAdmin))
			g.Post("/", h.createProduct)
			g.Patch("/{productID}", h.updateProduct)
			g.Delete("/{productID}", h.deleteProduct)
		})
	}
}

type productPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description,omitempty"`
	BigImg      string  `json:"bigImg,omitempty"`
	ProviderID  string  `json:"providerId"`
	CategoryID  string  `json:"categoryId"`
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
	CreatedAt   string  `json:"createdAt"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Stock:       product.Stock,
		Description: product.Description,
		BigImg:      product.BigImg,
		ProviderID:  product.ProviderID,
		CategoryID:  product.CategoryID,
		AvgRating:   product.AvgRating,
		ReviewCount: product.ReviewCount,
		CreatedAt:   formatTime(product.CreatedAt),
	}
}

func buildProductPayloads(products []domain.Product) []productPayload {
	payloads := make([]productPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, buildProductPayload(product))
	}
	return payloads
}

func productSortParam(r *http.Request) domain.ProductSort {
	switch r.URL.Query().Get("sort") {
	case "price_asc":
		return domain.ProductSortPriceAsc
	case "price_desc":
		return domain.ProductSortPriceDesc
	default:
		return domain.ProductSortCreatedDesc
	}
}

// search serves /products with mutually exclusive q, category, and provider
// filters. Without a filter it behaves as a browse of the newest products.
func (h *ProductHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sort := productSortParam(r)
	page := pageParam(r)

	var (
		listing services.Listing[domain.Product]
		err     error
	)
	switch {
	case strings.TrimSpace(r.URL.Query().Get("q")) != "":
		listing, err = h.products.Search(ctx, r.URL.Query().Get("q"), sort, page)
	case strings.TrimSpace(r.URL.Query().Get("category")) != "":
		listing, err = h.products.ListByCategory(ctx, r.URL.Query().Get("category"), sort, page)
	case strings.TrimSpace(r.URL.Query().Get("provider")) != "":
		listing, err = h.products.ListByProvider(ctx, r.URL.Query().Get("provider"), sort, page)
	default:
		listing, err = h.products.ListByCategory(ctx, "", sort, page)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeListResponse(w, http.StatusOK, buildProductPayloads(listing.Items), listing.Page)
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.products.FindProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *ProductHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reviews.ListByProduct(ctx, chi.URLParam(r, "productID"), pageParam(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"ok":          true,
		"payload":     buildReviewPayloads(result.Items),
		"pagination":  result.Page,
		"avgRating":   result.AvgRating,
		"reviewCount": result.ReviewCount,
	})
}

type createProductRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Description string `json:"description"`
	BigImg      string `json:"bigImg"`
	CategoryID  string `json:"categoryId"`
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.CreateProduct(ctx, services.CreateProductCommand{
		Actor:       actor,
		Name:        req.Name,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
		BigImg:      req.BigImg,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusCreated, buildProductPayload(product))
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Price       *int64  `json:"price"`
	Description *string `json:"description"`
	BigImg      *string `json:"bigImg"`
	CategoryID  *string `json:"categoryId"`
}

func (h *ProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.UpdateProduct(ctx, services.UpdateProductCommand{
		Actor:       actor,
		ProductID:   chi.URLParam(r, "productID"),
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		BigImg:      req.BigImg,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeObjectResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *ProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(ctx, actor, chi.URLParam(r, "productID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
