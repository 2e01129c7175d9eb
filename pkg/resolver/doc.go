// Package resolver turns the cluster-wide configuration document into a
// consistent, validated, per-instance view: the ConfigData facade used to
// bring up and operate one node of a Meridian cluster.
//
// # Overview
//
// Resolution reconciles three independent sources of truth: the declarative
// document (pkg/cluster), the replicaset topology it describes, and the
// identity a previous bootstrap persisted on disk or in the live catalog
// (pkg/catalog). Construction is one synchronous pass: the peer topology is
// built first, then every invariant validator runs, and only then is the
// facade returned. A ConfigData can therefore never be observed in a
// partially validated state; resolution either yields a fully valid facade
// or fails atomically with a structured error.
//
// # Lifecycle
//
// Resolution happens once per node startup or reload. The resulting
// ConfigData is immutable and safe for concurrent readers without locking;
// a reload produces a whole new ConfigData rather than patching the old one,
// and readers holding the previous facade keep using it.
//
// # Errors
//
// All failures are configuration-correctness errors carrying structured
// fields (instance, replicaset, group, conflicting values) under a Code from
// the package taxonomy. Mode-restricted facade queries called outside their
// mode fail with CodePrecondition, which marks a caller bug rather than a
// configuration problem.
package resolver
