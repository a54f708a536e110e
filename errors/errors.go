package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which bridge stage produced the error
type Phase string

const (
	PhaseBootstrap Phase = "bootstrap" // engine creation and ffi module
	PhaseLoad      Phase = "load"      // script compile and instantiate
	PhaseInvoke    Phase = "invoke"    // calls into script main
	PhaseHost      Phase = "host"      // host callbacks
	PhaseMarshal   Phase = "marshal"   // point records crossing linear memory
	PhaseParse     Phase = "parse"     // WAT parsing
	PhaseConfig    Phase = "config"    // configuration files
)

// Kind categorizes the error
type Kind string

const (
	KindBootstrapFailure  Kind = "bootstrap_failure"
	KindLoadFailure       Kind = "load_failure"
	KindInvocationFailure Kind = "invocation_failure"
	KindNoEntryPoint      Kind = "no_entry_point"
	KindBadHandle         Kind = "bad_handle"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindNilPointer        Kind = "nil_pointer"
	KindInvalidData       Kind = "invalid_data"
	KindInvalidInput      Kind = "invalid_input"
	KindNotInitialized    Kind = "not_initialized"
	KindClosed            Kind = "closed"
	KindTimeout           Kind = "timeout"
	KindSyntax            Kind = "syntax"
	KindUnsupported       Kind = "unsupported"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on the target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Module sets the wasm module name the error belongs to
func (b *Builder) Module(name string) *Builder {
	b.err.Module = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string) *Builder {
	b.err.Detail = msg
	return b
}

// Detailf sets the detail message from a format string.
func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is checks against any phase.
var (
	ErrBootstrapFailure  = &Error{Kind: KindBootstrapFailure}
	ErrLoadFailure       = &Error{Kind: KindLoadFailure}
	ErrInvocationFailure = &Error{Kind: KindInvocationFailure}
	ErrNoEntryPoint      = &Error{Kind: KindNoEntryPoint}
	ErrClosed            = &Error{Kind: KindClosed}
	ErrTimeout           = &Error{Kind: KindTimeout}
)

// Bridge failure taxonomy

// BootstrapFailure reports that the engine or its ffi module could not be created
func BootstrapFailure(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseBootstrap,
		Kind:   KindBootstrapFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// LoadFailure reports a script that failed to compile or instantiate
func LoadFailure(module, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailure,
		Module: module,
		Detail: detail,
		Cause:  cause,
	}
}

// InvocationFailure reports a runtime error raised while main was running
func InvocationFailure(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindInvocationFailure,
		Module: module,
		Detail: "call main",
		Cause:  cause,
	}
}

// NoEntryPoint reports a loaded script without a callable main
func NoEntryPoint(module, name, reason string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNoEntryPoint,
		Module: module,
		Path:   []string{name},
		Detail: reason,
	}
}

// Timeout reports a call that exceeded its deadline
func Timeout(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindTimeout,
		Module: module,
		Detail: "deadline exceeded, script terminated",
		Cause:  cause,
	}
}

// BadHandle reports an output handle the host does not know
func BadHandle(handle uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindBadHandle,
		Detail: fmt.Sprintf("unknown output handle %d", handle),
		Value:  handle,
	}
}

// OutOfBounds creates an out of bounds error for a linear memory access
func OutOfBounds(phase Phase, path []string, offset, size, limit uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("access [%d, %d) outside memory of %d bytes", offset, uint64(offset)+uint64(size), limit),
		Value:  offset,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		Detail: "nil pointer",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Closed reports use of a component after teardown
func Closed(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", component),
	}
}

// Syntax creates a WAT syntax error at a source line
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Detail: fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...)),
		Value:  line,
	}
}

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
