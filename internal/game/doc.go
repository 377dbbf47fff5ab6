// Package game implements the authoritative Kachuful rules engine: seeded
// dealing, the bidding state machine, follow-suit trick play with trump
// priority, round progression and pluggable scoring.
//
// The engine is a synchronous state machine. Every operation either fails
// without mutating state or advances it and returns an immutable Snapshot.
// Callers never see internal slices; snapshot data is copied on read, and a
// player's cards are only populated in a snapshot requested with that
// player's id as viewer.
package game
