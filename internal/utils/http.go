package utils

import (
	"net/http"

	"github.com/aristath/fundwatch/internal/domain"
)

// HTTPStatus maps an error to the response status handlers should use.
func HTTPStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAlreadyExists:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUpstreamUnavailable, domain.KindUpstreamPartialFailure:
		return http.StatusBadGateway
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
