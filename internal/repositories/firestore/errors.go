package firestore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
)

// notFoundError builds a repository error categorised as not found, used when
// a query rather than a direct document read comes back empty.
func notFoundError(op string) error {
	return pfirestore.WrapError(op, status.Error(codes.NotFound, "document not found"))
}

// conflictError builds a repository error categorised as a conflict.
func conflictError(op, msg string) error {
	return pfirestore.WrapError(op, status.Error(codes.FailedPrecondition, msg))
}
