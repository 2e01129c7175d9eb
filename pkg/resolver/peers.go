package resolver

import (
	"sort"

	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/scope"
)

// buildPeers instantiates and defaults every member of the resolving
// instance's replicaset, including the resolving instance itself, and
// returns the records together with the lexicographically sorted peer name
// order. The sorted order is the deterministic iteration order used
// everywhere else; it is identical on every node resolving the same
// document.
func buildPeers(acc *scope.Accessor, doc *cluster.Document, pos cluster.Position) (map[string]*PeerRecord, []string, error) {
	peers := make(map[string]*PeerRecord, len(pos.Replicaset.Instances))
	names := make([]string, 0, len(pos.Replicaset.Instances))

	for name := range pos.Replicaset.Instances {
		record, err := buildPeer(acc, doc, name, pos.ReplicasetName, pos.GroupName)
		if err != nil {
			return nil, nil, err
		}
		peers[name] = record
		names = append(names, name)
	}

	sort.Strings(names)
	return peers, names, nil
}

// buildPeer builds both configuration variants for one instance. Template
// variables are substituted into the as-specified tree before defaulting and
// into the defaulted tree afterwards, so defaults carrying templates (such
// as the snapshot directory) resolve per instance.
func buildPeer(acc *scope.Accessor, doc *cluster.Document, instanceName, replicasetName, groupName string) (*PeerRecord, error) {
	merged, ok := doc.Instantiate(instanceName)
	if !ok {
		return nil, newError(CodeUnknownInstance, "instance %q is not present in the cluster document", instanceName).
			at(instanceName, replicasetName, groupName)
	}

	vars := scope.Vars{
		InstanceName:   instanceName,
		ReplicasetName: replicasetName,
		GroupName:      groupName,
	}

	iconfig := scope.ApplyVars(merged, vars)
	defaulted, err := acc.ApplyDefault(iconfig)
	if err != nil {
		return nil, newError(CodeSchema, "configuration of instance %q is invalid", instanceName).
			at(instanceName, replicasetName, groupName).
			withCause(err)
	}

	return &PeerRecord{
		Config:    iconfig,
		ConfigDef: scope.ApplyVars(defaulted, vars),
	}, nil
}

// peerAnon reports whether a peer is an anonymous replica, from the
// defaulted tree.
func peerAnon(record *PeerRecord) bool {
	anon, _ := record.ConfigDef.GetBool("replication.anon")
	return anon
}

// peerUUID returns a peer's configured instance UUID, empty when unset.
func peerUUID(record *PeerRecord) string {
	uuid, _ := record.ConfigDef.GetString("database.instance_uuid")
	return uuid
}
