// Package store holds the read-only tables the recommendation engine scores
// against: portfolio holdings, the sector and risk user-to-user similarity
// matrices, and the stock reference table.
//
// Tables are loaded once into an immutable Snapshot. A Holder publishes the
// current snapshot through an atomic pointer, so a reload replaces the whole
// snapshot at once and in-flight requests keep the one they started with.
//
// User identifiers are normalized (trimmed) when a snapshot is built and
// symbols are normalized with utils.NormalizeSymbol; callers must apply the
// same functions to their inputs before looking anything up.
package store
