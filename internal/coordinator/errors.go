package coordinator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

// ValidationError reports malformed or missing input. Apart from line totals,
// which need current prices, it is raised before any store interaction.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductNotFoundError reports items referencing products absent from the
// store. The whole operation is rolled back.
type ProductNotFoundError struct {
	ProductIDs []string
}

// Error implements the error interface
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.ProductIDs, ", "))
}

// PersistenceError wraps an underlying store failure.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s order: %v", e.Op, e.Err)
}

// Unwrap returns the store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// classify keeps domain failures as they are and wraps everything else
// as a PersistenceError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		validationErr  *ValidationError
		notFoundErr    *repository.NotFoundError
		statusErr      *domain.InvalidStatusError
		productErr     *ProductNotFoundError
		persistenceErr *PersistenceError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &statusErr),
		errors.As(err, &productErr),
		errors.As(err, &persistenceErr):
		return err
	default:
		return &PersistenceError{Op: op, Err: err}
	}
}

// outcome names the result of an operation for metrics.
func outcome(err error, replayed bool) string {
	var (
		validationErr *ValidationError
		notFoundErr   *repository.NotFoundError
		statusErr     *domain.InvalidStatusError
		productErr    *ProductNotFoundError
	)

	switch {
	case err == nil && replayed:
		return OutcomeReplayed
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &validationErr):
		return OutcomeValidationError
	case errors.As(err, &statusErr):
		return OutcomeInvalidStatus
	case errors.As(err, &productErr):
		return OutcomeProductNotFound
	case errors.As(err, &notFoundErr):
		return OutcomeNotFound
	default:
		return OutcomePersistenceError
	}
}
