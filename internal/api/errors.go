package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/burial-clock/internal/export"
)

var (
	// ErrNotFound is returned when a requested frame does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for malformed request fields.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ToStatusError maps API errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(grpcCode(err), err.Error())
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, export.ErrUnknownFormat):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// HTTPStatus maps API errors onto HTTP status codes.
func HTTPStatus(err error) int {
	switch grpcCode(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
