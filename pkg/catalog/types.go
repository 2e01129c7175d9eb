package catalog

import (
	"context"

	"github.com/meridiandb/meridian/pkg/scope"
)

// SavedIdentity is the identity persisted by a prior bootstrap.
type SavedIdentity struct {
	// InstanceName is the persisted name of this instance. Empty when the
	// instance was bootstrapped before names were assigned.
	InstanceName string `yaml:"instance_name" json:"instance_name"`

	// InstanceUUID is the persisted UUID of this instance.
	InstanceUUID string `yaml:"instance_uuid" json:"instance_uuid"`

	// ReplicasetName is the persisted name of the replicaset.
	ReplicasetName string `yaml:"replicaset_name" json:"replicaset_name"`

	// ReplicasetUUID is the persisted UUID of the replicaset.
	ReplicasetUUID string `yaml:"replicaset_uuid" json:"replicaset_uuid"`

	// PeerUUIDs maps previously recorded peer names to their UUIDs.
	PeerUUIDs map[string]string `yaml:"peers" json:"peers"`
}

// Catalog reads persisted identity from a live node.
type Catalog interface {
	// Names returns the persisted identity. A node without a recorded
	// identity returns nil.
	Names(ctx context.Context) (*SavedIdentity, error)
}

// SnapshotReader reads persisted identity from an on-disk bootstrap record
// when storage is not yet running.
type SnapshotReader interface {
	// GetPath returns the path of the bootstrap record derived from the
	// instance's defaulted option tree, or false when no record exists.
	// A missing record means the node has never bootstrapped.
	GetPath(tree scope.Tree) (string, bool)

	// GetNames reads the bootstrap record at the given path.
	GetNames(ctx context.Context, path string) (*SavedIdentity, error)
}

// State is the explicit bootstrap state passed into resolution: either the
// node has never started storage (NotBootstrapped) or storage is live and
// persisted identity is read through the given catalog.
type State struct {
	catalog Catalog
}

// NotBootstrapped is the state of a node whose storage is not running.
// Saved identity, if any, is read from the snapshot record on disk.
var NotBootstrapped = State{}

// Bootstrapped returns the state of a node whose storage is live.
func Bootstrapped(c Catalog) State {
	return State{catalog: c}
}

// IsBootstrapped reports whether storage is live.
func (s State) IsBootstrapped() bool {
	return s.catalog != nil
}

// Catalog returns the live catalog handle, or nil when not bootstrapped.
func (s State) Catalog() Catalog {
	return s.catalog
}
