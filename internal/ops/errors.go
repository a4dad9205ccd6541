// Package ops implements the six operation façades: each exposes a Preview
// returning the planner output verbatim and an Execute running ready items
// through the executor. Planning never mutates the file system.
package ops

import "fmt"

// ErrorKind is the closed error taxonomy at the façade boundary.
type ErrorKind string

const (
	// KindInvalidRequest is caller-fixable and aborts the request.
	KindInvalidRequest ErrorKind = "invalidRequest"
	// KindIO is a per-item I/O failure recorded in the detail rows.
	KindIO ErrorKind = "io"
	// KindCodec is a per-item JPEG/EXIF structure failure.
	KindCodec ErrorKind = "codec"
	// KindInternal is an unexpected invariant violation; aborts the run.
	KindInternal ErrorKind = "internal"
)

// AppError is the structured error a façade returns instead of a response.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func invalidRequest(format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func internalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: err.Error()}
}
