package resolver

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/scope"
)

// Resolver resolves cluster documents into per-instance ConfigData views.
// A single Resolver is reused across reloads; it holds no per-resolution
// state.
type Resolver struct {
	acc       *scope.Accessor
	snapshots catalog.SnapshotReader
	log       zerolog.Logger
}

// Options configures a Resolver.
type Options struct {
	// Snapshots reads bootstrap records when storage is not yet live. Nil
	// disables the snapshot path; saved identity is then only available
	// through a live catalog.
	Snapshots catalog.SnapshotReader

	// Logger is the structured logger. A nil logger disables logging.
	Logger *zerolog.Logger
}

// New creates a Resolver with the built-in instance schema compiled.
func New(opts Options) (*Resolver, error) {
	acc, err := scope.NewAccessor()
	if err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "resolver").Logger()
	}

	return &Resolver{
		acc:       acc,
		snapshots: opts.Snapshots,
		log:       log,
	}, nil
}

// Resolve computes the validated per-instance view of the given document.
// It is one synchronous pass: peer topology first, then every invariant
// validator, then identity reconciliation against the given bootstrap
// state. It either returns a fully valid ConfigData or fails atomically;
// no partially validated facade is ever handed out.
func (r *Resolver) Resolve(ctx context.Context, doc *cluster.Document, instanceName string, state catalog.State) (*ConfigData, error) {
	pos, ok := doc.FindInstance(instanceName)
	if !ok {
		return nil, newError(CodeUnknownInstance,
			"unable to find instance %q in the cluster document", instanceName).
			at(instanceName, "", "")
	}

	peers, names, err := buildPeers(r.acc, doc, pos)
	if err != nil {
		return nil, err
	}
	self := peers[instanceName]

	if err := checkConfiguredUUIDs(peers, names, pos); err != nil {
		return nil, err
	}

	identity := Identity{
		InstanceName:   instanceName,
		InstanceUUID:   peerUUID(self),
		ReplicasetName: pos.ReplicasetName,
		GroupName:      pos.GroupName,
	}
	identity.ReplicasetUUID, _ = self.ConfigDef.GetString("database.replicaset_uuid")

	// Failover mode is replicaset-scoped: the schema forbids setting it per
	// instance, so reading it once from the resolving instance is enough.
	modeStr, _ := self.ConfigDef.GetString("replication.failover")
	mode := FailoverMode(modeStr)

	rs := pos.Replicaset
	if err := checkFailover(mode, rs, pos.GroupName, peers, names); err != nil {
		return nil, err
	}
	if err := checkAnonymous(mode, rs, pos.GroupName, peers, names); err != nil {
		return nil, err
	}
	strategy, bootstrapLeaderName, err := checkBootstrap(mode, rs, pos.GroupName, peers, names, self)
	if err != nil {
		return nil, err
	}

	saved, err := findSavedIdentity(ctx, state, r.snapshots, self.ConfigDef)
	if err != nil {
		return nil, err
	}
	if err := validateNames(saved, identity); err != nil {
		return nil, err
	}

	cd := &ConfigData{
		acc:                 r.acc,
		doc:                 doc,
		rs:                  rs,
		identity:            identity,
		peers:               peers,
		peerNames:           names,
		mode:                mode,
		leader:              rs.Leader,
		bootstrapStrategy:   strategy,
		bootstrapLeader:     rs.BootstrapLeader,
		bootstrapLeaderName: bootstrapLeaderName,
		saved:               saved,
	}

	r.log.Debug().
		Str("instance", instanceName).
		Str("replicaset", pos.ReplicasetName).
		Str("group", pos.GroupName).
		Str("failover", string(mode)).
		Str("bootstrap_strategy", string(strategy)).
		Int("peers", len(names)).
		Bool("bootstrapped", state.IsBootstrapped()).
		Msg("Resolved instance configuration")

	return cd, nil
}

// checkConfiguredUUIDs rejects malformed UUID values early, so everything
// downstream can compare them as opaque strings.
func checkConfiguredUUIDs(peers map[string]*PeerRecord, names []string, pos cluster.Position) error {
	for _, name := range names {
		record := peers[name]
		for _, path := range []string{"database.instance_uuid", "database.replicaset_uuid"} {
			value, ok := record.ConfigDef.GetString(path)
			if !ok || value == "" {
				continue
			}
			if _, err := uuid.Parse(value); err != nil {
				return newError(CodeSchema,
					"%s = %q of instance %q is not a valid UUID", path, value, name).
					at(name, pos.ReplicasetName, pos.GroupName).
					withCause(err)
			}
		}
	}
	return nil
}

// selfTree is a convenience for tests that need the resolving instance's
// defaulted tree without going through the facade query API.
func (cd *ConfigData) selfTree() scope.Tree {
	return cd.peers[cd.identity.InstanceName].ConfigDef
}
