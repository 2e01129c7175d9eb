package resolver

import (
	"github.com/meridiandb/meridian/pkg/scope"
)

// FailoverMode is the mechanism by which a replicaset's writable instance is
// chosen. It is replicaset-scoped: the schema forbids setting it per
// instance, so it is read once from the resolving instance and assumed
// identical across peers.
type FailoverMode string

const (
	// FailoverOff leaves write-mode assignment to the operator via
	// database.mode.
	FailoverOff FailoverMode = "off"

	// FailoverManual assigns the writable instance through the replicaset's
	// leader option.
	FailoverManual FailoverMode = "manual"

	// FailoverElection delegates leadership to Raft-style voting.
	FailoverElection FailoverMode = "election"

	// FailoverSupervised delegates leadership to an external coordinator.
	FailoverSupervised FailoverMode = "supervised"
)

// BootstrapStrategy is how a brand-new replicaset picks its first writable
// instance.
type BootstrapStrategy string

const (
	// BootstrapAuto picks the bootstrap leader algorithmically.
	BootstrapAuto BootstrapStrategy = "auto"

	// BootstrapConfig uses the operator-pinned bootstrap_leader option.
	BootstrapConfig BootstrapStrategy = "config"

	// BootstrapSupervised computes the bootstrap leader deterministically
	// for the external coordinator. In effect whenever failover is
	// supervised.
	BootstrapSupervised BootstrapStrategy = "supervised"
)

// PeerRecord holds the two configuration variants of one replicaset member.
// Records are built once by the peer topology builder and referenced
// read-only afterward.
type PeerRecord struct {
	// Config is the as-specified option tree: only explicitly set options,
	// with template variables substituted.
	Config scope.Tree

	// ConfigDef is the defaulted option tree: Config plus schema defaults.
	ConfigDef scope.Tree
}

// Identity is the logical identity of the resolving instance.
type Identity struct {
	// InstanceName is the name the instance was resolved under.
	InstanceName string `json:"instance_name" yaml:"instance_name"`

	// InstanceUUID is the configured instance UUID, empty when none is set.
	InstanceUUID string `json:"instance_uuid,omitempty" yaml:"instance_uuid,omitempty"`

	// ReplicasetName is the name of the instance's replicaset.
	ReplicasetName string `json:"replicaset_name" yaml:"replicaset_name"`

	// ReplicasetUUID is the configured replicaset UUID, empty when none is
	// set.
	ReplicasetUUID string `json:"replicaset_uuid,omitempty" yaml:"replicaset_uuid,omitempty"`

	// GroupName is the name of the instance's group.
	GroupName string `json:"group_name" yaml:"group_name"`
}

// MissingNames reports which configured names are not yet recorded in
// persisted identity. It is advisory output: the caller uses it to decide
// whether a name-assignment step is still required.
type MissingNames struct {
	// Replicaset maps the configured replicaset name to the UUID it must be
	// assigned to. Empty when the replicaset name is already recorded; the
	// UUID value is empty on a fresh bootstrap.
	Replicaset map[string]string `json:"replicaset,omitempty" yaml:"replicaset,omitempty"`

	// Peers maps each configured, non-anonymous peer name missing from
	// persisted identity to its configured UUID (empty when none is set).
	Peers map[string]string `json:"peers" yaml:"peers"`
}
