package handler

import (
	"context"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
)

// Submitter runs commands on behalf of network callers. *service.Dispatcher
// implements it.
type Submitter interface {
	Submit(ctx context.Context, line string) (service.Outcome, error)
	Snapshot(ctx context.Context) (service.Snapshot, error)
}

func httpStatus(kind domain.Kind) int {
	if kind == domain.KindItemNotFound {
		return http.StatusNotFound
	}
	switch kind.Class() {
	case domain.ClassValidation:
		return http.StatusBadRequest
	case domain.ClassTransfer:
		return http.StatusConflict
	case domain.ClassStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(kind domain.Kind) codes.Code {
	if kind == domain.KindItemNotFound {
		return codes.NotFound
	}
	switch kind.Class() {
	case domain.ClassValidation:
		return codes.InvalidArgument
	case domain.ClassTransfer:
		return codes.FailedPrecondition
	case domain.ClassStorage:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
