package resolver

import (
	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/scope"
	"github.com/meridiandb/meridian/pkg/sharding"
)

// ConfigData is the validated, immutable per-instance view of the cluster
// configuration. It is created once per resolution and superseded wholesale
// on reload; no query mutates state, so concurrent readers need no locking.
type ConfigData struct {
	acc      *scope.Accessor
	doc      *cluster.Document
	rs       *cluster.Replicaset
	identity Identity

	peers     map[string]*PeerRecord
	peerNames []string

	mode                FailoverMode
	leader              string
	bootstrapStrategy   BootstrapStrategy
	bootstrapLeader     string
	bootstrapLeaderName string

	saved *catalog.SavedIdentity
}

// Query selects which configuration variant and which instance a Get or
// Filter call reads.
type Query struct {
	// Defaulted selects the defaulted tree instead of the as-specified one.
	Defaulted bool

	// Peer selects a named peer's tree instead of the resolving instance's.
	// Empty means the resolving instance.
	Peer string
}

func (cd *ConfigData) tree(q Query) (scope.Tree, error) {
	name := q.Peer
	if name == "" {
		name = cd.identity.InstanceName
	}
	record, ok := cd.peers[name]
	if !ok {
		return nil, newError(CodeUnknownPeer,
			"instance %q is not a peer of replicaset %q", name, cd.identity.ReplicasetName).
			at(name, cd.identity.ReplicasetName, cd.identity.GroupName)
	}
	if q.Defaulted {
		return record.ConfigDef, nil
	}
	return record.Config, nil
}

// Get returns an option value by dotted path from the selected tree. The
// boolean reports whether the option is set; the error is non-nil only when
// the query names an unknown peer.
func (cd *ConfigData) Get(path string, q Query) (any, bool, error) {
	tree, err := cd.tree(q)
	if err != nil {
		return nil, false, err
	}
	v, ok := tree.Get(path)
	return v, ok, nil
}

// Filter returns the leaves of the selected tree accepted by the predicate,
// in path order.
func (cd *ConfigData) Filter(pred func(path string, value any) bool, q Query) ([]scope.Entry, error) {
	tree, err := cd.tree(q)
	if err != nil {
		return nil, err
	}
	return tree.Filter(pred), nil
}

// Peers returns the replicaset's instance names in the deterministic sorted
// order.
func (cd *ConfigData) Peers() []string {
	out := make([]string, len(cd.peerNames))
	copy(out, cd.peerNames)
	return out
}

// Identity returns the resolving instance's group/replicaset/instance names
// and configured UUIDs.
func (cd *ConfigData) Identity() Identity {
	return cd.identity
}

// FailoverMode returns the replicaset's failover mode.
func (cd *ConfigData) FailoverMode() FailoverMode {
	return cd.mode
}

// Leader returns the operator-assigned leader. Calling it under any mode
// other than manual is a caller bug and fails with CodePrecondition; check
// FailoverMode first.
func (cd *ConfigData) Leader() (string, error) {
	if cd.mode != FailoverManual {
		return "", newError(CodePrecondition,
			"Leader() is valid only under manual failover, but replication.failover is %q", cd.mode)
	}
	return cd.leader, nil
}

// IsLeader reports whether the resolving instance is the manual-mode leader.
// Same precondition discipline as Leader.
func (cd *ConfigData) IsLeader() (bool, error) {
	leader, err := cd.Leader()
	if err != nil {
		return false, err
	}
	return leader != "" && leader == cd.identity.InstanceName, nil
}

// BootstrapStrategy returns the effective bootstrap strategy.
func (cd *ConfigData) BootstrapStrategy() BootstrapStrategy {
	return cd.bootstrapStrategy
}

// BootstrapLeader returns the operator-pinned bootstrap leader name. The
// boolean reports whether one is set; it is set if and only if the bootstrap
// strategy is config.
func (cd *ConfigData) BootstrapLeader() (string, bool) {
	return cd.bootstrapLeader, cd.bootstrapLeader != ""
}

// BootstrapLeaderName returns the computed bootstrap leader. Calling it
// under any strategy other than supervised fails with CodePrecondition.
func (cd *ConfigData) BootstrapLeaderName() (string, error) {
	if cd.bootstrapStrategy != BootstrapSupervised {
		return "", newError(CodePrecondition,
			"BootstrapLeaderName() is valid only under the supervised bootstrap strategy, but the effective strategy is %q",
			cd.bootstrapStrategy)
	}
	return cd.bootstrapLeaderName, nil
}

// PeerNameByUUID returns the name of the peer whose configured instance UUID
// matches, or false when no peer carries the UUID.
func (cd *ConfigData) PeerNameByUUID(uuid string) (string, bool) {
	for _, name := range cd.peerNames {
		if peerUUID(cd.peers[name]) == uuid {
			return name, true
		}
	}
	return "", false
}

// SavedIdentity returns the identity persisted by a prior bootstrap, or nil
// on the fresh bootstrap path.
func (cd *ConfigData) SavedIdentity() *catalog.SavedIdentity {
	return cd.saved
}

// MissingNames cross-references saved against configured identity and
// returns the names not yet recorded in persisted state. It is advisory and
// always callable: on a fresh bootstrap it reports the replicaset and every
// non-anonymous peer as missing.
func (cd *ConfigData) MissingNames() MissingNames {
	missing := MissingNames{Peers: make(map[string]string)}

	savedPeers := map[string]string{}
	savedReplicasetName := ""
	savedReplicasetUUID := ""
	savedInstanceUUID := ""
	if cd.saved != nil {
		savedPeers = cd.saved.PeerUUIDs
		savedReplicasetName = cd.saved.ReplicasetName
		savedReplicasetUUID = cd.saved.ReplicasetUUID
		savedInstanceUUID = cd.saved.InstanceUUID
	}

	if savedReplicasetName != cd.identity.ReplicasetName {
		uuid := cd.identity.ReplicasetUUID
		if uuid == "" {
			uuid = savedReplicasetUUID
		}
		missing.Replicaset = map[string]string{cd.identity.ReplicasetName: uuid}
	}

	for _, name := range cd.peerNames {
		record := cd.peers[name]
		if peerAnon(record) {
			continue
		}
		if _, ok := savedPeers[name]; ok {
			continue
		}
		uuid := peerUUID(record)
		if uuid == "" && name == cd.identity.InstanceName {
			uuid = savedInstanceUUID
		}
		missing.Peers[name] = uuid
	}

	return missing
}

// Sharding derives the cluster-wide sharding topology. The derivation spans
// the whole cluster document, so it is recomputed on every call rather than
// cached on the facade.
func (cd *ConfigData) Sharding() (*sharding.Topology, error) {
	self := cd.peers[cd.identity.InstanceName]
	return deriveSharding(cd.acc, cd.doc, self.ConfigDef)
}
