package resolver

import (
	"context"

	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/scope"
)

// findSavedIdentity reads the identity persisted by a prior bootstrap. When
// storage is live it comes from the catalog; otherwise from the bootstrap
// record on disk, if one exists. A nil result means the node has never
// bootstrapped and there is nothing to validate.
func findSavedIdentity(ctx context.Context, state catalog.State, snapshots catalog.SnapshotReader, selfDef scope.Tree) (*catalog.SavedIdentity, error) {
	if state.IsBootstrapped() {
		saved, err := state.Catalog().Names(ctx)
		if err != nil {
			return nil, newError(CodeCorruptSnapshot, "failed to read persisted identity from the catalog").withCause(err)
		}
		return saved, nil
	}

	if snapshots == nil {
		return nil, nil
	}
	path, ok := snapshots.GetPath(selfDef)
	if !ok {
		return nil, nil
	}

	saved, err := snapshots.GetNames(ctx, path)
	if err != nil {
		return nil, newError(CodeCorruptSnapshot, "failed to read bootstrap record %s", path).withCause(err)
	}
	return saved, nil
}

// validateNames cross-checks configured identity against saved identity.
// Any field where both sides are defined and differ is a mismatch; a saved
// record without its UUIDs is not a valid bootstrap record at all.
func validateNames(saved *catalog.SavedIdentity, identity Identity) error {
	if saved == nil {
		return nil
	}

	if saved.ReplicasetUUID == "" {
		return newError(CodeCorruptSnapshot,
			"no replicaset UUID in the persisted identity of instance %q", identity.InstanceName).
			at(identity.InstanceName, identity.ReplicasetName, identity.GroupName)
	}
	if saved.InstanceUUID == "" {
		return newError(CodeCorruptSnapshot,
			"no instance UUID in the persisted identity of instance %q", identity.InstanceName).
			at(identity.InstanceName, identity.ReplicasetName, identity.GroupName)
	}

	if err := checkMismatch("replicaset UUID", identity.ReplicasetUUID, saved.ReplicasetUUID, identity); err != nil {
		return err
	}
	if err := checkMismatch("replicaset name", identity.ReplicasetName, saved.ReplicasetName, identity); err != nil {
		return err
	}
	if err := checkMismatch("instance UUID", identity.InstanceUUID, saved.InstanceUUID, identity); err != nil {
		return err
	}
	if err := checkMismatch("instance name", identity.InstanceName, saved.InstanceName, identity); err != nil {
		return err
	}

	// A present record always carries both UUIDs (checked above), so a
	// non-anonymous instance with no configured UUID still resolves its
	// UUID from the persisted identity. Anonymous replicas never have
	// persisted names and need no such fallback.
	return nil
}

func checkMismatch(field, configured, saved string, identity Identity) error {
	if configured == "" || saved == "" || configured == saved {
		return nil
	}
	return newError(CodeIdentityMismatch,
		"%s mismatch for instance %q: configured as %q, persisted as %q",
		field, identity.InstanceName, configured, saved).
		at(identity.InstanceName, identity.ReplicasetName, identity.GroupName).
		withDetail("field", field).
		withDetail("configured", configured).
		withDetail("saved", saved)
}
