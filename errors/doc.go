// Package errors provides structured error types for the binding generator.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the offending construct, the type
// expression involved, a path through the interface model, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMissingDefinition).
//		Path("record Person", "field address").
//		TypeExpr("Address").
//		Detail("no record, enum, object or callback interface named %q", "Address").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingDefinition(path, "Address")
//	err := errors.ChecksumMismatch("uniffi_math_checksum_func_add", 41, 7)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
