// Package synapse is the settings and results core of a vision processing
// runtime for robot deployments. It validates every pipeline setting
// against a declared constraint, serializes structured detection results
// into tagged binary envelopes, and keeps the runtime, a dashboard UI and
// robot-side clients converged on one canonical state over a NATS-backed
// key-value table.
//
// # Architecture
//
// The core is organized around three ideas:
//
// Validated settings: every tunable value belongs to a setting.Collection
// whose fields each carry a constraint.Constraint (range, boolean,
// enumerated, list, string, color). Writes pass through validation into a
// canonical form or are rejected with a classified error; the published
// schema lets a dashboard render a correct control for any pipeline type
// without pipeline-specific code.
//
// Typed results: each pipeline instance owns a results.Channel with two
// disjoint surfaces. Primitive telemetry entries are transported as-is;
// the structured final result is encoded into a CBOR envelope tagged with
// its registered type name, and decoded on the robot side only when the
// tag matches the expected type.
//
// Reconciliation: the syncer.Adapter is the single writer of canonical
// keys on the substrate. Once per tick it publishes each camera's schema,
// settings snapshot, latencies and results, and drains proposed writes
// back through validation, echoing the canonical value or a rejection
// record.
//
// Pipeline types are registered in an explicit discovery pass
// (pipeline.Registry); a malformed declaration excludes that type only.
// Nothing in the core is fatal to the process: bad writes, bad
// declarations and bad result objects degrade per-operation.
//
// The synapsed daemon under cmd/synapsed wires these together with the
// NATS client, Prometheus metrics and health reporting.
package synapse
