// Package errors provides structured error types for the stroke bridge.
//
// Errors are categorized by Phase (which stage failed) and Kind (error category).
// The three failure classes a host cares about are BootstrapFailure,
// LoadFailure and InvocationFailure; each has a sentinel usable with errors.Is
// regardless of phase:
//
//	if errors.Is(err, bridgeerrors.ErrLoadFailure) {
//		// previous script is still active under the retain policy
//	}
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
//		Path("point", "speed").
//		Module("script.0193").
//		Detailf("offset %d past end", off).
//		Build()
package errors
