package gpu

import (
	"errors"
)

// ErrRetryNextFrame marks a resource that cannot be built yet. Callers map
// it to a RetryNextFrame result instead of a failure.
var ErrRetryNextFrame = errors.New("resource not ready, retry next frame")

type PrepareStatus int

const (
	PrepareReady PrepareStatus = iota
	PrepareRetryNextFrame
	PrepareFailed
)

func (s PrepareStatus) String() string {
	switch s {
	case PrepareReady:
		return "ready"
	case PrepareRetryNextFrame:
		return "retry-next-frame"
	case PrepareFailed:
		return "failed"
	}
	return "unknown"
}

// PrepareResult is the outcome of turning an extracted asset into its GPU
// form.
type PrepareResult[T any] struct {
	Status PrepareStatus
	Value  T
	Err    error
}

func Ready[T any](value T) PrepareResult[T] {
	return PrepareResult[T]{Status: PrepareReady, Value: value}
}

func RetryNextFrame[T any]() PrepareResult[T] {
	return PrepareResult[T]{Status: PrepareRetryNextFrame}
}

func Failed[T any](err error) PrepareResult[T] {
	return PrepareResult[T]{Status: PrepareFailed, Err: err}
}

// ResultOf folds a (value, error) pair into a PrepareResult.
func ResultOf[T any](value T, err error) PrepareResult[T] {
	switch {
	case err == nil:
		return Ready(value)
	case errors.Is(err, ErrRetryNextFrame):
		return RetryNextFrame[T]()
	default:
		return Failed[T](err)
	}
}
