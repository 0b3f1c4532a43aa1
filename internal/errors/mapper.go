package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// CodeOf extracts the domain code from any error in the chain.
// Non-domain errors count as infrastructure failures.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CodeNotFound
	}
	return CodeInfrastructure
}

// HTTPStatus maps any error to the status the handler layer should write.
// Keeps services clean by centralizing the mapping.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	switch CodeOf(err) {
	case CodeValidation, CodeAmbiguousCounterparty:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotParticipant, CodeNotApproved, CodeNoApprovedSwipe:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
