package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-management/internal/api/rest/response"
	"github.com/CameronXie/order-management/internal/coordinator"
	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

const (
	maxBodyBytes = 1 << 20

	invalidRequestBodyMessage  = "invalid request body"
	internalServerErrorMessage = "internal server error"
	productsNotFoundMessage    = "products not found"
	conflictMessage            = "resource already exists"
	referencedMessage          = "resource is still referenced"
	timeoutMessage             = "request timed out"
)

// decodeJSON reads r's body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, invalidRequestBodyMessage, err.Error())
		return false
	}

	return true
}

// writeError maps a domain or store error to its HTTP status and logs it.
func writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error, attrs ...any) {
	var (
		validationErr *coordinator.ValidationError
		statusErr     *domain.InvalidStatusError
		notFoundErr   *repository.NotFoundError
		productErr    *coordinator.ProductNotFoundError
	)

	attrs = append(attrs, "error", err)

	switch {
	case errors.As(err, &validationErr):
		response.JSONErrorResponse(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &statusErr):
		allowed := make([]string, len(statusErr.Allowed))
		for i, s := range statusErr.Allowed {
			allowed[i] = string(s)
		}
		response.JSONErrorResponse(w, http.StatusBadRequest, statusErr.Error(), allowed...)
	case errors.As(err, &notFoundErr):
		logger.WarnContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &productErr):
		logger.WarnContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusUnprocessableEntity, productsNotFoundMessage, productErr.ProductIDs...)
	case errors.Is(err, repository.ErrDuplicateKey):
		logger.WarnContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusConflict, conflictMessage)
	case errors.Is(err, repository.ErrReferenced):
		logger.WarnContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusConflict, referencedMessage)
	case errors.Is(err, context.DeadlineExceeded):
		logger.ErrorContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusGatewayTimeout, timeoutMessage)
	default:
		logger.ErrorContext(ctx, msg, attrs...)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
	}
}
