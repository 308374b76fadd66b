// Package param owns the MOT parameter wire contract.
//
// Ownership boundary:
// - PLI preamble encode/decode shared by header and directory parameters
// - id -> decoder dispatch tables (header and directory namespaces)
// - the core parameter variants and their payload formats
//
// Extensions add parameter ids by calling Registry.Register before any
// decode that references them.
package param
