// Package recommend scores stocks for a user from the holdings of similar
// users.
//
// Two scorers are provided. BySector looks only at the user's top sector and
// sums the sector-preference similarity of every peer holding a stock in it.
// ByRisk scans the whole reference universe and sums weight times the
// risk-profile similarity of every holder. Both exclude stocks the user
// already owns, normalize to 0-100 and rank descending with ties kept in
// accumulation order.
//
// The scorers are pure functions of (snapshot, user). Engine adds snapshot
// resolution, metrics, truncation and the reference-data join.
package recommend
