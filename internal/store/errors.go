package store

import (
	"errors"

	"github.com/ronaldjose/terrastore/internal/common"
)

// OperationError is the single typed failure raised by store operations.
// It carries the wire-stable ErrorMessage surfaced to callers unchanged.
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

// IsNotFound reports whether err is a store failure with the NOT_FOUND code.
func IsNotFound(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Msg.Code == common.NotFoundCode
}
