package services

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/platform/pagination"
	"github.com/seoulmarket/api/internal/platform/requestctx"
)

// Entity ID prefixes keep identifiers self-describing in logs and payloads.
const (
	userIDPrefix      = "usr_"
	productIDPrefix   = "prd_"
	categoryIDPrefix  = "cat_"
	orderIDPrefix     = "ord_"
	orderItemIDPrefix = "itm_"
	refundIDPrefix    = "rfd_"
	reviewIDPrefix    = "rev_"
)

func defaultIDGenerator() string {
	return ulid.Make().String()
}

// displayDate renders the human-readable date strings stamped on orders,
// refunds, and reviews.
func displayDate(t time.Time) string {
	return t.UTC().Format("2006.01.02")
}

// listingFromPage combines a repository page with computed page metadata.
func listingFromPage[T any](page domain.Page[T], pageNum, pageSize int) Listing[T] {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return Listing[T]{
		Items: items,
		Page:  pagination.Compute(pageNum, pageSize, page.Total),
	}
}

func normalisePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func valuePtr[T any](v T) *T {
	return &v
}

// contextLogger prefers the request-scoped logger, falling back to the
// service's own.
func contextLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger := requestctx.Logger(ctx); logger != requestctx.NoopLogger() {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return requestctx.NoopLogger()
}
