package network

import "errors"

// Error implements errors returned by the layers and networks of this
// package. Op names the operation which failed.
type Error struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so that errors.Is can be used
// with the sentinel errors of this package
func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidSize reports a non-positive layer or network dimension
	ErrInvalidSize = errors.New("invalid size")

	// ErrShapeMismatch reports an input whose shape does not match the
	// shape a network or layer was constructed with
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrBatchTooSmall reports a training mode batch normalization
	// forward pass on a single sample, for which the batch variance is
	// undefined
	ErrBatchTooSmall = errors.New("batch normalization in training " +
		"mode requires more than one sample")

	// ErrParamsMismatch reports a set of parameters which cannot be
	// loaded into a network
	ErrParamsMismatch = errors.New("parameters do not match network")
)

// IsShapeMismatch returns whether or not an error reports an input of
// the wrong shape
func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

// IsBatchTooSmall returns whether or not an error reports a batch
// normalization forward pass on a single sample in training mode
func IsBatchTooSmall(err error) bool {
	return errors.Is(err, ErrBatchTooSmall)
}
