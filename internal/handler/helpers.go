package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"problembox/internal/domain"
	"problembox/internal/httputil"
)

// handleError maps domain errors to HTTP responses. Unexpected errors are
// logged and reported as a bare 500.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrUnavailable):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validateID rejects anything that is not a uuid.
func validateID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%w: %s must be a uuid", domain.ErrValidation, field)
	}
	return nil
}

// validateIDs checks every id; emptiness is left to the service.
func validateIDs(field string, ids []string) error {
	for _, id := range ids {
		if err := validateID(field, id); err != nil {
			return err
		}
	}
	return nil
}

// validateOptionalID accepts nil or "" as "the root".
func validateOptionalID(field string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	return validateID(field, *id)
}

func respondOK(w http.ResponseWriter) {
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
