// Package bridge loads interpolation scripts and invokes them per frame.
//
// A Bridge owns at most one engine.Engine, created on the first LoadScript,
// and at most one loaded script. All methods are serialized by an internal
// mutex, so a Bridge can be shared between goroutines even though the engine
// underneath cannot.
//
// The state machine is:
//
//	UNINITIALIZED --load, engine ok-------------> READY(no-entry-point) or READY(callable)
//	UNINITIALIZED --load, engine fails----------> UNINITIALIZED
//	READY(*)      --load ok, main valid---------> READY(callable)
//	READY(*)      --load ok, main missing-------> READY(no-entry-point)
//	READY(*)      --load fails, RetainStale-----> unchanged
//	READY(*)      --load fails, ClearOnFailure--> READY(no-entry-point)
//	READY(callable) --invoke times out---------> READY(no-entry-point)
//	any           --Close-----------------------> CLOSED
//
// Invoke never returns an error and never panics. Failures go to the
// logger with the engine's own error text.
package bridge
