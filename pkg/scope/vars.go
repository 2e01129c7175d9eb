package scope

import (
	"regexp"
	"strings"
)

// Vars are the template variables substituted into string leaves during
// instantiation. All three are always set by the resolver.
type Vars struct {
	// InstanceName is the name of the instance being resolved.
	InstanceName string

	// ReplicasetName is the name of the instance's replicaset.
	ReplicasetName string

	// GroupName is the name of the instance's group.
	GroupName string
}

var varPattern = regexp.MustCompile(`\{\{\s*(instance_name|replicaset_name|group_name)\s*\}\}`)

// ApplyVars returns a copy of the tree with every {{ instance_name }},
// {{ replicaset_name }} and {{ group_name }} token in string leaves replaced
// by the corresponding variable. The input tree is not modified.
func ApplyVars(t Tree, vars Vars) Tree {
	out := t.Clone()
	substituteVars(map[string]any(out), vars)
	return out
}

func substituteVars(section map[string]any, vars Vars) {
	for key, val := range section {
		switch v := val.(type) {
		case map[string]any:
			substituteVars(v, vars)
		case []any:
			substituteVarsSeq(v, vars)
		case string:
			section[key] = expandVars(v, vars)
		}
	}
}

func substituteVarsSeq(seq []any, vars Vars) {
	for i, val := range seq {
		switch v := val.(type) {
		case map[string]any:
			substituteVars(v, vars)
		case []any:
			substituteVarsSeq(v, vars)
		case string:
			seq[i] = expandVars(v, vars)
		}
	}
}

func expandVars(s string, vars Vars) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		switch name {
		case "instance_name":
			return vars.InstanceName
		case "replicaset_name":
			return vars.ReplicasetName
		case "group_name":
			return vars.GroupName
		}
		return match
	})
}
