package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // reading the interface description
	PhaseParse   Phase = "parse"   // type expressions
	PhaseConfig  Phase = "config"  // generator configuration
	PhaseResolve Phase = "resolve" // type resolution against the model
	PhaseRender  Phase = "render"  // emitting host source
	PhaseWrite   Phase = "write"   // writing the output file
	PhaseVerify  Phase = "verify"  // probing a compiled library
	PhaseEncode  Phase = "encode"  // serialising a value into a buffer
	PhaseDecode  Phase = "decode"  // reading a value from a buffer
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownType             Kind = "unknown_type"
	KindMissingDefinition       Kind = "missing_definition"
	KindMalformed               Kind = "malformed"
	KindUnsupported             Kind = "unsupported"
	KindDuplicate               Kind = "duplicate"
	KindIO                      Kind = "io"
	KindNotFound                Kind = "not_found"
	KindInvalidInput            Kind = "invalid_input"
	KindContractVersionMismatch Kind = "contract_version_mismatch"
	KindChecksumMismatch        Kind = "checksum_mismatch"
	KindCallFailed              Kind = "call_failed"
	KindTypeMismatch            Kind = "type_mismatch"
	KindOverflow                Kind = "overflow"
	KindIncompleteData          Kind = "incomplete_data"
	KindUnexpectedOptionalTag   Kind = "unexpected_optional_tag"
	KindUnexpectedEnumCase      Kind = "unexpected_enum_case"
)

// Error is the structured error type used throughout the generator
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Construct string
	TypeExpr  string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, " / "))
	}

	if e.Construct != "" || e.TypeExpr != "" {
		b.WriteString(": ")
		if e.Construct != "" && e.TypeExpr != "" {
			b.WriteString(e.Construct)
			b.WriteString(", type ")
			b.WriteString(e.TypeExpr)
		} else if e.Construct != "" {
			b.WriteString(e.Construct)
		} else {
			b.WriteString("type ")
			b.WriteString(e.TypeExpr)
		}
	}

	if e.Detail != "" {
		if e.Construct != "" || e.TypeExpr != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// Path sets the path through the interface model
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Construct names the offending interface construct
func (b *Builder) Construct(c string) *Builder {
	b.err.Construct = c
	return b
}

// TypeExpr sets the type expression involved
func (b *Builder) TypeExpr(t string) *Builder {
	b.err.TypeExpr = t
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
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownType creates an error for a type expression that names nothing
func UnknownType(path []string, expr string) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindUnknownType,
		Path:     path,
		TypeExpr: expr,
		Detail:   fmt.Sprintf("unknown type %q", expr),
	}
}

// MissingDefinition creates an error for a reference to an undeclared definition
func MissingDefinition(path []string, name string) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindMissingDefinition,
		Path:     path,
		TypeExpr: name,
		Detail:   fmt.Sprintf("no definition named %q", name),
	}
}

// Malformed creates an error for structurally invalid input
func Malformed(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformed,
		Path:   path,
		Detail: detail,
	}
}

// Duplicate creates an error for a name declared twice
func Duplicate(path []string, name string) *Error {
	return &Error{
		Phase:     PhaseLoad,
		Kind:      KindDuplicate,
		Path:      path,
		Construct: name,
		Detail:    fmt.Sprintf("%q is declared more than once", name),
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

// IO wraps a filesystem failure
func IO(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
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

// ContractVersionMismatch reports a library built against another contract
func ContractVersionMismatch(expected, actual uint32) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindContractVersionMismatch,
		Detail: fmt.Sprintf("bindings expect contract version %d, library reports %d", expected, actual),
		Value:  actual,
	}
}

// ChecksumMismatch reports an API checksum that differs from the model
func ChecksumMismatch(symbol string, expected, actual uint16) *Error {
	return &Error{
		Phase:     PhaseVerify,
		Kind:      KindChecksumMismatch,
		Construct: symbol,
		Detail:    fmt.Sprintf("expected checksum %d, library reports %d", expected, actual),
		Value:     actual,
	}
}

// CallFailed wraps a failed native call
func CallFailed(symbol string, cause error) *Error {
	return &Error{
		Phase:     PhaseVerify,
		Kind:      KindCallFailed,
		Construct: symbol,
		Cause:     cause,
	}
}

// TypeMismatch creates an error for a value that does not fit its type
func TypeMismatch(path []string, expected string, got any) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindTypeMismatch,
		Path:     path,
		TypeExpr: expected,
		Value:    got,
		Detail:   fmt.Sprintf("cannot encode %T as %s", got, expected),
	}
}

// IncompleteData creates an error for a buffer that ends early
func IncompleteData(path []string, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindIncompleteData,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, %d remain", need, have),
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

// ValidationError aggregates independent failures found in one pass
type ValidationError struct {
	Phase  Phase
	Issues []error
}

// Add records an issue; nil issues are ignored
func (v *ValidationError) Add(err error) {
	if err != nil {
		v.Issues = append(v.Issues, err)
	}
}

// Err returns nil when no issue was recorded
func (v *ValidationError) Err() error {
	if len(v.Issues) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	if len(v.Issues) == 0 {
		return fmt.Sprintf("[%s] validation failed", v.Phase)
	}
	if len(v.Issues) == 1 {
		return v.Issues[0].Error()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %d problems:", v.Phase, len(v.Issues)))
	for _, issue := range v.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.Error())
	}
	return b.String()
}

// Unwrap exposes every issue to errors.Is/As
func (v *ValidationError) Unwrap() []error {
	return v.Issues
}
