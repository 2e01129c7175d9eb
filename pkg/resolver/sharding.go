package resolver

import (
	"sort"

	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/scope"
	"github.com/meridiandb/meridian/pkg/sharding"
)

// shardingRoleName is the credential role the sharding login must carry,
// directly or through nested roles.
const shardingRoleName = "sharding"

// deriveSharding computes the cluster-wide sharding topology. It walks every
// replicaset of the whole document, not just the resolving instance's own,
// so it re-instantiates each member instead of reusing the peer records.
func deriveSharding(acc *scope.Accessor, doc *cluster.Document, selfDef scope.Tree) (*sharding.Topology, error) {
	topology := &sharding.Topology{
		Sharding:             make(map[string]*sharding.Replicaset),
		BoxCfgMode:           sharding.BoxCfgModeManual,
		SchemaManagementMode: sharding.SchemaManagementManual,
		IdentificationMode:   sharding.IdentificationModeNameKey,
		Tuning:               tuningOptions(selfDef),
	}

	var rebalancerSets []string

	for _, groupName := range sortedKeys(doc.Groups) {
		group := doc.Groups[groupName]
		for _, rsName := range sortedKeys(group.Replicasets) {
			rs := group.Replicasets[rsName]
			entry, hasRebalancer, err := deriveReplicaset(acc, doc, group, rs)
			if err != nil {
				return nil, err
			}
			if hasRebalancer {
				rebalancerSets = append(rebalancerSets, rsName)
			}
			if entry != nil {
				entry.Rebalancer = hasRebalancer
				topology.Sharding[rsName] = entry
			}
		}
	}

	if len(rebalancerSets) > 1 {
		return nil, newError(CodeMultipleRebalancers,
			"the rebalancer role is assigned in %d replicasets (%v), but at most one replicaset in the cluster may carry it",
			len(rebalancerSets), rebalancerSets).
			withDetail("replicasets", rebalancerSets)
	}

	return topology, nil
}

// deriveReplicaset builds the sharding entry of one replicaset. The entry is
// nil when no member carries the storage role; the rebalancer flag is
// reported separately because a rebalancer assignment counts toward the
// cluster-wide limit even in such a replicaset.
func deriveReplicaset(acc *scope.Accessor, doc *cluster.Document, group *cluster.Group, rs *cluster.Replicaset) (*sharding.Replicaset, bool, error) {
	replicas := make(map[string]*sharding.Replica)
	hasRebalancer := false
	rsUUID := ""
	lock := false

	for _, instName := range sortedKeys(rs.Instances) {
		record, err := buildPeer(acc, doc, instName, rs.Name, group.Name)
		if err != nil {
			return nil, false, err
		}

		roles, _ := record.ConfigDef.GetStrings("sharding.roles")
		isStorage := false
		for _, role := range roles {
			switch sharding.Role(role) {
			case sharding.RoleStorage:
				isStorage = true
			case sharding.RoleRebalancer:
				hasRebalancer = true
			}
		}
		if !isStorage {
			continue
		}

		uri, ok := scope.InstanceURI(record.ConfigDef, scope.URIScopeSharding)
		if !ok {
			return nil, false, newError(CodeMissingShardingURI,
				"instance %q of replicaset %q has the storage sharding role, but no sharding URI can be resolved from its configuration",
				instName, rs.Name).
				at(instName, rs.Name, group.Name)
		}
		// The sharding client library requires a login on every address.
		uri = uri.WithDefaultLogin(sharding.GuestLogin)

		if err := checkShardingCredentials(record.ConfigDef, uri.Login, instName, rs.Name, group.Name); err != nil {
			return nil, false, err
		}

		replicas[instName] = &sharding.Replica{
			URI:  uri.String(),
			UUID: peerUUID(record),
			Zone: intOption(record.ConfigDef, "sharding.zone"),
		}
		if rsUUID == "" {
			rsUUID, _ = record.ConfigDef.GetString("database.replicaset_uuid")
		}
		if l, ok := record.ConfigDef.GetBool("sharding.lock"); ok && l {
			lock = true
		}
	}

	if len(replicas) == 0 {
		return nil, hasRebalancer, nil
	}

	return &sharding.Replicaset{
		Replicas: replicas,
		UUID:     rsUUID,
		Master:   "auto",
		Lock:     lock,
	}, hasRebalancer, nil
}

// checkShardingCredentials verifies that the credential entry of the
// sharding login, when one is defined, transitively carries the sharding
// role. Logins without a credential entry pass: credentials may be managed
// outside the document.
func checkShardingCredentials(tree scope.Tree, login, instName, rsName, groupName string) error {
	usersVal, ok := tree.Get("credentials.users")
	if !ok {
		return nil
	}
	users, ok := usersVal.(map[string]any)
	if !ok {
		return nil
	}
	userVal, ok := users[login].(map[string]any)
	if !ok {
		return nil
	}

	found, err := hasShardingRole(tree, roleNames(userVal), nil)
	if err != nil {
		return newError(CodeSchema,
			"credential roles of user %q form a cycle", login).
			at(instName, rsName, groupName).
			withCause(err)
	}
	if !found {
		return newError(CodeMissingShardingRole,
			"storage user %q of instance %q has no role %q (direct or inherited)",
			login, instName, shardingRoleName).
			at(instName, rsName, groupName).
			withDetail("login", login)
	}
	return nil
}

// hasShardingRole walks the credential role graph looking for the sharding
// role. The path set guards against cyclic role definitions, which the
// schema does not otherwise forbid.
func hasShardingRole(tree scope.Tree, roles []string, path map[string]bool) (bool, error) {
	if path == nil {
		path = make(map[string]bool)
	}
	for _, role := range roles {
		if role == shardingRoleName {
			return true, nil
		}
		if path[role] {
			return false, errCycle(role)
		}
		path[role] = true
		found, err := hasShardingRole(tree, nestedRoles(tree, role), path)
		if err != nil {
			return false, err
		}
		delete(path, role)
		if found {
			return true, nil
		}
	}
	return false, nil
}

func errCycle(role string) error {
	return newError(CodeSchema, "credential role %q is part of a role cycle", role).withDetail("role", role)
}

// nestedRoles returns the roles granted by a named credential role.
func nestedRoles(tree scope.Tree, role string) []string {
	rolesVal, ok := tree.Get("credentials.roles")
	if !ok {
		return nil
	}
	rolesMap, ok := rolesVal.(map[string]any)
	if !ok {
		return nil
	}
	roleVal, ok := rolesMap[role].(map[string]any)
	if !ok {
		return nil
	}
	return roleNames(roleVal)
}

func roleNames(entry map[string]any) []string {
	seq, ok := entry["roles"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// tuningOptions reads the cluster-wide sharding tuning scalars from the
// resolving instance's defaulted sharding section.
func tuningOptions(selfDef scope.Tree) sharding.TuningOptions {
	return sharding.TuningOptions{
		BucketCount:                   intOption(selfDef, "sharding.bucket_count"),
		RebalancerDisbalanceThreshold: floatOption(selfDef, "sharding.rebalancer_disbalance_threshold"),
		RebalancerMaxReceiving:        intOption(selfDef, "sharding.rebalancer_max_receiving"),
		RebalancerMaxSending:          intOption(selfDef, "sharding.rebalancer_max_sending"),
		SyncTimeout:                   floatOption(selfDef, "sharding.sync_timeout"),
		ConnectionOutdateDelay:        floatOption(selfDef, "sharding.connection_outdate_delay"),
		FailoverPingTimeout:           floatOption(selfDef, "sharding.failover_ping_timeout"),
		SchedRefQuota:                 intOption(selfDef, "sharding.sched_ref_quota"),
		SchedMoveQuota:                intOption(selfDef, "sharding.sched_move_quota"),
	}
}

func intOption(tree scope.Tree, path string) int {
	v, ok := tree.Get(path)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func floatOption(tree scope.Tree, path string) float64 {
	v, ok := tree.Get(path)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
