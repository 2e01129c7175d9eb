package cluster

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meridiandb/meridian/pkg/scope"
)

// Document is the parsed cluster-wide configuration document. It is built
// once by Load and never mutated afterwards.
type Document struct {
	// Groups maps group names to their records.
	Groups map[string]*Group

	// global holds the top-level options shared by every scope, with the
	// structural "groups" key stripped.
	global scope.Tree
}

// Group is a named collection of replicasets sharing configuration scope.
type Group struct {
	// Name is the group name.
	Name string

	// Options are the group-scoped option overrides.
	Options scope.Tree

	// Replicasets maps replicaset names to their records.
	Replicasets map[string]*Replicaset
}

// Replicaset is a set of instances replicating the same dataset.
type Replicaset struct {
	// Name is the replicaset name.
	Name string

	// GroupName is the name of the group this replicaset belongs to.
	GroupName string

	// Leader is the operator-assigned leader, meaningful only under manual
	// failover. Empty when unset.
	Leader string

	// BootstrapLeader is the operator-pinned bootstrap leader, meaningful
	// only under the config bootstrap strategy. Empty when unset.
	BootstrapLeader string

	// Options are the replicaset-scoped option overrides.
	Options scope.Tree

	// Instances maps instance names to their records.
	Instances map[string]*Instance
}

// Instance is a single database instance record.
type Instance struct {
	// Name is the instance name.
	Name string

	// Options are the instance-scoped option overrides.
	Options scope.Tree
}

// nameTag is the validator constraint for group/replicaset/instance names.
const nameTag = "required,hostname_rfc1123,max=63"

var validate = validator.New()

// Load parses and validates a cluster document from YAML.
func Load(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cluster document: %w", err)
	}
	return build(raw)
}

// LoadFile reads and parses a cluster document from a file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster document: %w", err)
	}
	return Load(data)
}

func build(raw map[string]any) (*Document, error) {
	doc := &Document{
		Groups: make(map[string]*Group),
		global: make(scope.Tree),
	}

	for key, val := range raw {
		if key != "groups" {
			doc.global[key] = val
		}
	}

	groupsRaw, ok := raw["groups"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cluster document has no groups section")
	}

	for groupName, groupVal := range groupsRaw {
		if err := validate.Var(groupName, nameTag); err != nil {
			return nil, fmt.Errorf("invalid group name %q: %w", groupName, err)
		}
		groupRaw, ok := groupVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("group %q is not a mapping", groupName)
		}
		group, err := buildGroup(groupName, groupRaw)
		if err != nil {
			return nil, err
		}
		doc.Groups[groupName] = group
	}

	if err := checkUniqueReplicasetNames(doc); err != nil {
		return nil, err
	}
	if err := checkUniqueInstanceNames(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func buildGroup(name string, raw map[string]any) (*Group, error) {
	group := &Group{
		Name:        name,
		Options:     make(scope.Tree),
		Replicasets: make(map[string]*Replicaset),
	}

	for key, val := range raw {
		if key != "replicasets" {
			group.Options[key] = val
		}
	}

	rsRaw, ok := raw["replicasets"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("group %q has no replicasets section", name)
	}

	for rsName, rsVal := range rsRaw {
		if err := validate.Var(rsName, nameTag); err != nil {
			return nil, fmt.Errorf("invalid replicaset name %q in group %q: %w", rsName, name, err)
		}
		rsMap, ok := rsVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("replicaset %q in group %q is not a mapping", rsName, name)
		}
		rs, err := buildReplicaset(name, rsName, rsMap)
		if err != nil {
			return nil, err
		}
		group.Replicasets[rsName] = rs
	}
	return group, nil
}

func buildReplicaset(groupName, name string, raw map[string]any) (*Replicaset, error) {
	rs := &Replicaset{
		Name:      name,
		GroupName: groupName,
		Options:   make(scope.Tree),
		Instances: make(map[string]*Instance),
	}

	for key, val := range raw {
		switch key {
		case "instances":
		case "leader":
			leader, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("leader of replicaset %q is not a string", name)
			}
			rs.Leader = leader
		case "bootstrap_leader":
			bl, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("bootstrap_leader of replicaset %q is not a string", name)
			}
			rs.BootstrapLeader = bl
		default:
			rs.Options[key] = val
		}
	}

	instRaw, ok := raw["instances"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("replicaset %q has no instances section", name)
	}

	for instName, instVal := range instRaw {
		if err := validate.Var(instName, nameTag); err != nil {
			return nil, fmt.Errorf("invalid instance name %q in replicaset %q: %w", instName, name, err)
		}
		options := make(scope.Tree)
		if instVal != nil {
			instMap, ok := instVal.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("instance %q in replicaset %q is not a mapping", instName, name)
			}
			for key, val := range instMap {
				options[key] = val
			}
		}
		rs.Instances[instName] = &Instance{Name: instName, Options: options}
	}
	return rs, nil
}

// checkUniqueReplicasetNames rejects documents where the same replicaset
// name appears in more than one group. Replicaset names key derived
// topologies, so two same-named replicasets would collapse into one.
func checkUniqueReplicasetNames(doc *Document) error {
	seen := make(map[string]string)
	for _, group := range doc.Groups {
		for name := range group.Replicasets {
			if prev, ok := seen[name]; ok {
				return fmt.Errorf("replicaset %q appears in groups %q and %q", name, prev, group.Name)
			}
			seen[name] = group.Name
		}
	}
	return nil
}

// checkUniqueInstanceNames rejects documents where the same instance name
// appears in more than one replicaset. Instance names key the whole
// resolution, so they must be cluster-unique.
func checkUniqueInstanceNames(doc *Document) error {
	seen := make(map[string]string)
	for _, group := range doc.Groups {
		for _, rs := range group.Replicasets {
			for name := range rs.Instances {
				if prev, ok := seen[name]; ok {
					return fmt.Errorf("instance %q appears in replicasets %q and %q", name, prev, rs.Name)
				}
				seen[name] = rs.Name
			}
		}
	}
	return nil
}
