package server

import (
	"context"
	"errors"
	"net/http"

	"report_bridge/internal/domain/query"
	"report_bridge/internal/storage"
	"report_bridge/internal/usecase"
	"report_bridge/internal/usecase/repository"
)

func statusFor(err error) int {
	switch {
	case query.IsRejected(err), errors.Is(err, usecase.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrReportNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, usecase.ErrExportUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
