package resolver

import (
	"github.com/meridiandb/meridian/pkg/cluster"
)

// checkFailover enforces the failover/leader/mode consistency rules. In
// every mode except off, read-write assignment is owned by the failover
// mechanism, so an explicit database.mode override on any peer is a
// conflict; non-off election modes are owned by election failover the same
// way.
func checkFailover(mode FailoverMode, rs *cluster.Replicaset, groupName string, peers map[string]*PeerRecord, names []string) error {
	if rs.Leader != "" && mode != FailoverManual {
		return newError(CodeFailoverConflict,
			"leader = %q is set for replicaset %q, but this option can only be used when replication.failover is manual",
			rs.Leader, rs.Name).
			at("", rs.Name, groupName).
			withDetail("leader", rs.Leader).
			withDetail("failover", string(mode))
	}

	if mode != FailoverOff {
		for _, name := range names {
			if dbMode, ok := peers[name].Config.GetString("database.mode"); ok {
				return newError(CodeFailoverConflict,
					"database.mode = %q is set for instance %q of replicaset %q, but this option cannot be used together with replication.failover = %q",
					dbMode, name, rs.Name, mode).
					at(name, rs.Name, groupName).
					withDetail("database.mode", dbMode).
					withDetail("failover", string(mode))
			}
		}
	}

	if mode == FailoverManual && rs.Leader != "" {
		if _, ok := peers[rs.Leader]; !ok {
			return newError(CodeUnknownPeer,
				"leader %q is not an instance of replicaset %q", rs.Leader, rs.Name).
				at(rs.Leader, rs.Name, groupName)
		}
	}

	if mode != FailoverElection {
		for _, name := range names {
			if electionMode, ok := peers[name].Config.GetString("replication.election_mode"); ok && electionMode != "off" {
				return newError(CodeFailoverConflict,
					"replication.election_mode = %q is set for instance %q of replicaset %q, but this option is only applicable when replication.failover is election",
					electionMode, name, rs.Name).
					at(name, rs.Name, groupName).
					withDetail("election_mode", electionMode).
					withDetail("failover", string(mode))
			}
		}
	}

	return nil
}

// checkAnonymous enforces the anonymous-replica constraints: a replicaset
// must keep at least one named member, and an anonymous replica can never
// hold a position that requires a persistent identity.
func checkAnonymous(mode FailoverMode, rs *cluster.Replicaset, groupName string, peers map[string]*PeerRecord, names []string) error {
	allAnon := true
	for _, name := range names {
		if !peerAnon(peers[name]) {
			allAnon = false
			break
		}
	}
	if allAnon {
		return newError(CodeAnonymousReplica,
			"all the instances of replicaset %q of group %q are configured as anonymous replicas; it effectively means that the whole replicaset is read-only",
			rs.Name, groupName).
			at("", rs.Name, groupName)
	}

	for _, name := range names {
		if !peerAnon(peers[name]) {
			continue
		}

		if mode == FailoverManual && rs.Leader == name {
			return newError(CodeAnonymousReplica,
				"replication.anon = true is set for instance %q of replicaset %q, but this instance is configured as its leader",
				name, rs.Name).
				at(name, rs.Name, groupName)
		}

		if mode == FailoverOff {
			if dbMode, _ := peers[name].ConfigDef.GetString("database.mode"); dbMode == "rw" {
				return newError(CodeAnonymousReplica,
					"replication.anon = true is set for instance %q of replicaset %q together with database.mode = rw; an anonymous replica cannot be writable",
					name, rs.Name).
					at(name, rs.Name, groupName).
					withDetail("database.mode", dbMode)
			}
		}

		if mode == FailoverElection {
			if electionMode, ok := peers[name].Config.GetString("replication.election_mode"); ok && electionMode != "off" {
				return newError(CodeAnonymousReplica,
					"replication.election_mode = %q is set for anonymous instance %q of replicaset %q; an anonymous replica cannot participate in elections",
					electionMode, name, rs.Name).
					at(name, rs.Name, groupName).
					withDetail("election_mode", electionMode)
			}
		}
	}

	return nil
}

// checkBootstrap enforces the bootstrap strategy consistency rules and
// returns the effective strategy together with the computed bootstrap leader
// name for the supervised strategy. The supervised strategy is in effect
// whenever failover is supervised; picking the first non-anonymous peer in
// sorted order makes the computed leader identical on every node. A
// non-anonymous peer exists because checkAnonymous runs first.
func checkBootstrap(mode FailoverMode, rs *cluster.Replicaset, groupName string, peers map[string]*PeerRecord, names []string, self *PeerRecord) (BootstrapStrategy, string, error) {
	configured, _ := self.ConfigDef.GetString("replication.bootstrap_strategy")

	strategy := BootstrapStrategy(configured)
	if mode == FailoverSupervised {
		strategy = BootstrapSupervised
	}

	if strategy != BootstrapConfig && rs.BootstrapLeader != "" {
		return "", "", newError(CodeBootstrapConflict,
			"bootstrap_leader = %q is set for replicaset %q, but this option can only be used when replication.bootstrap_strategy is config",
			rs.BootstrapLeader, rs.Name).
			at("", rs.Name, groupName).
			withDetail("bootstrap_leader", rs.BootstrapLeader).
			withDetail("bootstrap_strategy", string(strategy))
	}

	switch strategy {
	case BootstrapConfig:
		if rs.BootstrapLeader == "" {
			return "", "", newError(CodeBootstrapConflict,
				"replication.bootstrap_strategy is config for replicaset %q, but no bootstrap_leader is set", rs.Name).
				at("", rs.Name, groupName)
		}
		if _, ok := peers[rs.BootstrapLeader]; !ok {
			return "", "", newError(CodeUnknownPeer,
				"bootstrap_leader %q is not an instance of replicaset %q", rs.BootstrapLeader, rs.Name).
				at(rs.BootstrapLeader, rs.Name, groupName)
		}

	case BootstrapSupervised:
		if configured != string(BootstrapAuto) {
			return "", "", newError(CodeBootstrapConflict,
				"replication.bootstrap_strategy = %q is set for replicaset %q, but only auto is supported when replication.failover is supervised",
				configured, rs.Name).
				at("", rs.Name, groupName).
				withDetail("bootstrap_strategy", configured)
		}
		for _, name := range names {
			if !peerAnon(peers[name]) {
				return strategy, name, nil
			}
		}
	}

	return strategy, "", nil
}
