package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrUnavailable indicates the vector store could not be reached or the
	// call timed out. Callers may retry.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrCollectionNotFound indicates the collection does not exist.
	// Not retryable; the collection must be created by ingestion first.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrBadRequest indicates the store rejected the request as malformed,
	// e.g. a vector whose dimension does not match the collection.
	ErrBadRequest = errors.New("malformed vector store request")
)

// IsRetryable reports whether the error represents a transient condition
// (connectivity, timeout) rather than a terminal one.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// classify maps a gRPC client error onto the package's sentinel errors so
// callers can distinguish retryable from terminal failures with errors.Is.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %v", op, ErrCollectionNotFound, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
