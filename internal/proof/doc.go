// Package proof provides the in-memory model of a canonical proof artifact.
//
// A canonical proof is produced once, externally, by a simulation engine and
// is immutable input to the verifier. This package never recomputes the
// simulation; it only exposes read-only accessors over the parsed document,
// content digests of it, and the commodity math used by the optional
// consistency mode.
//
// All other internal packages may import proof; proof imports nothing
// internal.
//
// # Producer contract
//
// A producer must be able to emit a document of the CanonicalProof shape given
// a deterministic seed and a declarative schedule of named topology
// transitions (see TopologySpec). How the producer is constructed is not
// constrained; only the shape of what it emits is.
//
// # Hash chain
//
// The genesis/tip pair (and optional links) is treated as reported data. No
// function in this package re-derives a tip from its genesis.
package proof
