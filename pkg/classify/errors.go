package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrClassification matches every *Failure via errors.Is.
var ErrClassification = errors.New("classify: classification failed")

// FailureKind says which step of a classification cycle failed.
type FailureKind int

const (
	// KindEncode means the frame could not be encoded or staged for transport.
	KindEncode FailureKind = iota
	// KindNetwork means the request could not be sent or the body not read.
	KindNetwork
	// KindTimeout means the request exceeded its deadline.
	KindTimeout
	// KindStatus means the service answered with a non-200 status.
	KindStatus
	// KindDecode means the body was not a valid classification.
	KindDecode
)

// String implements fmt.Stringer.
func (k FailureKind) String() string {
	switch k {
	case KindEncode:
		return "encode"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is a non-fatal classification failure. The caller keeps its
// previous classification.
type Failure struct {
	Kind FailureKind

	// StatusCode is set for KindStatus.
	StatusCode int

	// Message is the service's error text, if any.
	Message string

	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch {
	case f.Kind == KindStatus && f.Message != "":
		return fmt.Sprintf("classify: status %d: %s", f.StatusCode, f.Message)
	case f.Kind == KindStatus:
		return fmt.Sprintf("classify: status %d", f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("classify: %s: %v", f.Kind, f.Err)
	default:
		return fmt.Sprintf("classify: %s: %s", f.Kind, f.Message)
	}
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is reports whether target is ErrClassification.
func (f *Failure) Is(target error) bool {
	return target == ErrClassification
}

// IsServerError returns true for HTTP 5xx responses.
func (f *Failure) IsServerError() bool {
	return f.Kind == KindStatus && f.StatusCode >= 500 && f.StatusCode < 600
}

// NewFailure wraps err as a Failure of the given kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// transportFailure classifies an error returned by http.Client.Do.
func transportFailure(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFailure(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFailure(KindTimeout, err)
	}
	return NewFailure(KindNetwork, err)
}
