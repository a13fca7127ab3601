package service

import (
	"errors"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/router"
	"github.com/ronaldjose/terrastore/internal/store"
)

// OperationError is the service-level failure surfaced to the boundary
// layer. It preserves the ErrorMessage of the underlying routing,
// transport or store failure unchanged.
type OperationError struct {
	Msg common.ErrorMessage
}

func (e *OperationError) Error() string {
	return e.Msg.String()
}

// ErrorMessage returns the structured failure payload.
func (e *OperationError) ErrorMessage() common.ErrorMessage {
	return e.Msg
}

// NewOperationError builds an OperationError with a formatted message.
func NewOperationError(code int, format string, args ...any) *OperationError {
	return &OperationError{Msg: common.Errorf(code, format, args...)}
}

// wrap re-raises any lower-level failure as a service failure, carrying
// its ErrorMessage through unchanged.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	var routeErr *router.MissingRouteError
	if errors.As(err, &routeErr) {
		return &OperationError{Msg: routeErr.Msg}
	}
	var procErr *cluster.ProcessingError
	if errors.As(err, &procErr) {
		return &OperationError{Msg: procErr.Msg}
	}
	var storeErr *store.OperationError
	if errors.As(err, &storeErr) {
		return &OperationError{Msg: storeErr.Msg}
	}
	return NewOperationError(common.InternalCode, "unexpected error: %v", err)
}
