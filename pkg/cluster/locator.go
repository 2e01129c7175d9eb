package cluster

import (
	"github.com/meridiandb/meridian/pkg/scope"
)

// Position is the location of an instance inside the cluster document.
type Position struct {
	// GroupName is the name of the group containing the instance.
	GroupName string

	// ReplicasetName is the name of the replicaset containing the instance.
	ReplicasetName string

	// Replicaset is the replicaset record itself.
	Replicaset *Replicaset
}

// FindInstance locates the group/replicaset record of an instance. The
// second return value reports whether the instance exists in the document.
func (d *Document) FindInstance(instanceName string) (Position, bool) {
	for _, group := range d.Groups {
		for _, rs := range group.Replicasets {
			if _, ok := rs.Instances[instanceName]; ok {
				return Position{
					GroupName:      group.Name,
					ReplicasetName: rs.Name,
					Replicaset:     rs,
				}, true
			}
		}
	}
	return Position{}, false
}

// Instantiate merges the global, group, replicaset and instance option
// scopes into the instance's as-specified option tree, innermost scope
// winning. The second return value reports whether the instance exists.
// Template variables are not substituted here; the resolver applies them.
func (d *Document) Instantiate(instanceName string) (scope.Tree, bool) {
	pos, ok := d.FindInstance(instanceName)
	if !ok {
		return nil, false
	}

	group := d.Groups[pos.GroupName]
	inst := pos.Replicaset.Instances[instanceName]
	return scope.Merge(d.global, group.Options, pos.Replicaset.Options, inst.Options), true
}

// GlobalOptions returns the top-level option scope of the document.
func (d *Document) GlobalOptions() scope.Tree {
	return d.global
}
