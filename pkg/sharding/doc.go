// Package sharding defines the in-memory topology structures the sharding
// subsystem's bring-up routine consumes. The resolver derives a Topology
// from the whole cluster document on every call; the structures here carry
// no behavior beyond serialization.
package sharding
