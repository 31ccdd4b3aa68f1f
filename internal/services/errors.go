package services

import (
	"errors"
	"fmt"

	"github.com/seoulmarket/api/internal/repositories"
)

// Service operations fail with one of these kinds; handlers translate them
// into transport responses with errors.Is.
var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a role or ownership check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRequest indicates malformed or inconsistent input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInsufficientStock indicates a reservation exceeds the remaining stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition indicates an illegal order-item state change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyFinalized indicates the order item already carries a terminal
	// refund outcome.
	ErrAlreadyFinalized = errors.New("already finalized")
	// ErrConflict indicates a uniqueness or concurrency conflict.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage indicates an unexpected persistence failure.
	ErrStorage = errors.New("storage failure")
)

// mapRepositoryError folds categorised repository failures into service error
// kinds; uncategorised errors surface as storage failures.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
