// Package sqlite implements the roster persistence contracts over a single
// SQLite database.
//
// Why this package exists:
// - It is the concrete backend where gang mutations, cost recomputation, and
//   ledger appends meet in one immediate transaction.
// - It owns migration and schema-compatibility behavior for roster and ledger
//   durability.
// - It translates domain-shaped records into concrete SQL rows; nothing above
//   this package speaks SQL.
//
// Every mutating method follows the same shape: load the gang aggregate, apply
// domain functions to in-memory copies, recompute totals, write the changed
// rows, and append the resulting ledger entries, all inside one transaction.
package sqlite
