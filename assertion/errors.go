package assertion

import "errors"

var (
	// ErrInvalidInput reports a caller error: an empty sentence, an
	// empty batch, or a blank element inside a batch.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable reports that a prediction was requested
	// before the model finished loading, or after the one-time load
	// failed. The caller should surface it as service-unavailable.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelLoad reports the one-time startup load failure. It is
	// never returned by prediction calls; they see ErrModelUnavailable.
	ErrModelLoad = errors.New("model load failed")

	// ErrInference reports an unexpected failure inside the forward
	// pass, such as a tensor shape mismatch. Not retried here.
	ErrInference = errors.New("inference execution failed")
)
