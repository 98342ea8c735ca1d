package commons

import (
	"fmt"
)

// ErrorKind identifies the class of a failure that aborts a run.
type ErrorKind string

const (
	SampleCountMismatch ErrorKind = "dataset.sample.count.mismatch"
	EmptyInstance       ErrorKind = "dataset.instance.empty"
	IndexOutOfRange     ErrorKind = "dataset.index.out.of.range"
	InvalidBatch        ErrorKind = "batch.invalid"
	DeviceUnavailable   ErrorKind = "device.unavailable"
	NonFiniteLoss       ErrorKind = "training.loss.non.finite"
)

var (
	ErrSampleCountMismatch = &Error{Kind: SampleCountMismatch, Message: "image and mask counts differ"}
	ErrEmptyInstance       = &Error{Kind: EmptyInstance, Message: "instance mask has no pixels"}
	ErrIndexOutOfRange     = &Error{Kind: IndexOutOfRange, Message: "index out of range"}
	ErrInvalidBatch        = &Error{Kind: InvalidBatch, Message: "invalid batch input"}
	ErrDeviceUnavailable   = &Error{Kind: DeviceUnavailable, Message: "compute device unavailable"}
	ErrNonFiniteLoss       = &Error{Kind: NonFiniteLoss, Message: "loss is not finite"}
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same kind, so errors.Is works against
// the package sentinels regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates an error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to an error of the given kind.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
