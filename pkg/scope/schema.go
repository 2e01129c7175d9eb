package scope

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Accessor applies the built-in instance schema to option trees. Default
// values and enum constraints are expressed in CUE; ApplyDefault unifies a
// tree with the schema and decodes the result, so a defaulted tree always
// carries concrete values for every option the resolver reads.
type Accessor struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewAccessor creates an accessor with the built-in instance schema compiled.
func NewAccessor() (*Accessor, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(builtinInstanceSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile instance schema: %w", err)
	}
	return &Accessor{ctx: ctx, schema: schema}, nil
}

// ApplyDefault returns the defaulted variant of the given as-specified tree:
// the tree unified with the instance schema, with schema defaults filled in.
// The input tree is not modified. Schema violations (bad enum value, wrong
// type) are returned as errors.
func (a *Accessor) ApplyDefault(t Tree) (Tree, error) {
	val := a.ctx.Encode(map[string]any(t))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode option tree: %w", err)
	}

	unified := a.schema.Unify(val)
	if err := unified.Validate(); err != nil {
		return nil, fmt.Errorf("option tree violates instance schema: %w", err)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode defaulted tree: %w", err)
	}
	return Tree(out), nil
}

// Validate checks an as-specified tree against the instance schema without
// materializing defaults.
func (a *Accessor) Validate(t Tree) error {
	val := a.ctx.Encode(map[string]any(t))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to encode option tree: %w", err)
	}
	if err := a.schema.Unify(val).Validate(); err != nil {
		return fmt.Errorf("option tree violates instance schema: %w", err)
	}
	return nil
}

// builtinInstanceSchema is the CUE schema for a fully scoped instance option
// tree. Every struct is open so operator-defined sections pass through
// untouched; defaults are attached only to the options the resolver reads.
const builtinInstanceSchema = `
{
	database: {
		mode?: "ro" | "rw"
		instance_uuid?:   string
		replicaset_uuid?: string
		...
	}

	replication: {
		anon:               bool | *false
		failover:           "off" | "manual" | "election" | "supervised" | *"off"
		bootstrap_strategy: "auto" | "config" | "supervised" | *"auto"
		election_mode?:     "off" | "voter" | "candidate" | "manual"
		peers?: [...string]
		...
	}

	sharding: {
		roles: [...("router" | "storage" | "rebalancer")] | *[]
		lock: bool | *false
		zone?: int

		bucket_count:                    int & >0 | *3000
		rebalancer_disbalance_threshold: number | *1
		rebalancer_max_receiving:        int | *100
		rebalancer_max_sending:          int | *1
		sync_timeout:                    number | *1
		connection_outdate_delay:        number | *0
		failover_ping_timeout:           number | *5
		sched_ref_quota:                 int | *300
		sched_move_quota:                int | *1
		...
	}

	snapshot: {
		dir: string | *"var/lib/{{ instance_name }}"
		...
	}

	iproto: {
		listen?: [...{
			uri: string
			...
		}]
		advertise: {
			client?: string
			peer?: {
				uri?:      string
				login?:    string
				password?: string
				...
			}
			sharding?: {
				uri?:      string
				login?:    string
				password?: string
				...
			}
			...
		}
		...
	}

	credentials?: {
		users?: {
			[string]: {
				password?: string
				roles?: [...string]
				...
			}
		}
		roles?: {
			[string]: {
				roles?: [...string]
				...
			}
		}
		...
	}

	...
}
`
