package sharding

// Fixed operating options emitted with every derived topology. The sharding
// subsystem must not reconfigure storage or manage schema on its own; the
// node's apply stage owns both.
const (
	BoxCfgModeManual          = "manual"
	SchemaManagementManual    = "manual_access"
	IdentificationModeNameKey = "name_as_key"
)

// Topology is the cluster-wide sharding configuration derived from the
// cluster document.
type Topology struct {
	// Sharding maps replicaset names to their sharding configuration. Only
	// replicasets with at least one storage-role member appear here.
	Sharding map[string]*Replicaset `json:"sharding" yaml:"sharding"`

	// BoxCfgMode is always "manual": storage reconfiguration is owned by the
	// apply stage.
	BoxCfgMode string `json:"box_cfg_mode" yaml:"box_cfg_mode"`

	// SchemaManagementMode is always "manual_access".
	SchemaManagementMode string `json:"schema_management_mode" yaml:"schema_management_mode"`

	// IdentificationMode is always "name_as_key": replicas are addressed by
	// instance name, not UUID.
	IdentificationMode string `json:"identification_mode" yaml:"identification_mode"`

	// Tuning carries the cluster-wide scalar tuning options, read from the
	// resolving instance's defaulted sharding section.
	Tuning TuningOptions `json:"tuning" yaml:"tuning"`
}

// Replicaset is the sharding configuration of one replicaset.
type Replicaset struct {
	// Rebalancer reports whether this replicaset hosts the rebalancer. At
	// most one replicaset cluster-wide may.
	Rebalancer bool `json:"rebalancer" yaml:"rebalancer"`

	// Replicas maps instance names to their connection records.
	Replicas map[string]*Replica `json:"replicas" yaml:"replicas"`

	// UUID is the configured replicaset UUID, empty when none is set.
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// Master is always "auto": write-target selection is delegated to the
	// sharding subsystem.
	Master string `json:"master" yaml:"master"`

	// Lock reports whether the replicaset is locked against bucket moves.
	Lock bool `json:"lock" yaml:"lock"`
}

// Replica is the connection record of one storage instance.
type Replica struct {
	// URI is the normalized sharding address. It always carries a login; an
	// address specified without one is normalized to the guest login.
	URI string `json:"uri" yaml:"uri"`

	// UUID is the configured instance UUID, empty when none is set.
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// Zone is the failover zone of the instance, zero when unset.
	Zone int `json:"zone,omitempty" yaml:"zone,omitempty"`
}

// TuningOptions are the cluster-wide scalar tuning options of the sharding
// subsystem.
type TuningOptions struct {
	BucketCount                   int     `json:"bucket_count" yaml:"bucket_count"`
	RebalancerDisbalanceThreshold float64 `json:"rebalancer_disbalance_threshold" yaml:"rebalancer_disbalance_threshold"`
	RebalancerMaxReceiving        int     `json:"rebalancer_max_receiving" yaml:"rebalancer_max_receiving"`
	RebalancerMaxSending          int     `json:"rebalancer_max_sending" yaml:"rebalancer_max_sending"`
	SyncTimeout                   float64 `json:"sync_timeout" yaml:"sync_timeout"`
	ConnectionOutdateDelay        float64 `json:"connection_outdate_delay" yaml:"connection_outdate_delay"`
	FailoverPingTimeout           float64 `json:"failover_ping_timeout" yaml:"failover_ping_timeout"`
	SchedRefQuota                 int     `json:"sched_ref_quota" yaml:"sched_ref_quota"`
	SchedMoveQuota                int     `json:"sched_move_quota" yaml:"sched_move_quota"`
}

// Role is a sharding capability tag assigned to an instance.
type Role string

const (
	// RoleRouter marks an instance that routes requests to storages.
	RoleRouter Role = "router"

	// RoleStorage marks an instance that stores buckets.
	RoleStorage Role = "storage"

	// RoleRebalancer marks the single instance responsible for moving
	// buckets between replicasets.
	RoleRebalancer Role = "rebalancer"
)

// GuestLogin is the login substituted into sharding addresses that omit one;
// the sharding client library requires a login field on every address.
const GuestLogin = "guest"
