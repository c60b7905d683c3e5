// Package app exposes the roster operations behind a single service facade.
//
// Every mutation delegates to the store, which runs it inside one immediate
// transaction. The facade adds what sits above persistence: operation spans,
// page token handling for ledger reads, and the ledger consistency check
// with its drift diagnostics.
package app
