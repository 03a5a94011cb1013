// Package circulation implements the circulation engine: the single writer
// of the copy ledger and the loan store. It owns the cross-entity invariant
// that a copy is checked out if and only if the ledger reflects one fewer
// available copy and exactly one active loan exists for the triple.
package circulation
