// Package catalog provides access to the identity a node persisted at a
// previous bootstrap: instance and replicaset names and UUIDs, plus the
// name-to-UUID map of previously known peers.
//
// Saved identity comes from one of two places, selected by an explicit
// State value rather than ambient process state: before storage is running,
// a snapshot record on disk (SnapshotReader); once storage is live, the
// node's catalog (Catalog, backed by SQLite). A node that never bootstrapped
// has no saved identity at all, and the resolver treats that as the fresh
// bootstrap path.
package catalog
