// Package audit contains durable in-product audit writes for roster
// operations.
//
// This package owns persisted operational audit events, such as ledger
// consistency warnings, used for incident analysis and debugging.
//
// For distributed tracing, this service still uses package `internal/platform/otel`.
package audit
