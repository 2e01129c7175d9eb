// Package scope implements the scoped configuration accessor used by the
// resolver: a free-form option tree with dotted-path access, template
// variable substitution, schema-driven default application backed by CUE,
// and advertised-address resolution.
//
// # Overview
//
// Every instance of a Meridian cluster is described by an option tree merged
// from the global, group, replicaset and instance scopes of the cluster
// document. The accessor operates on two variants of that tree: the
// as-specified tree (only options the operator actually wrote, after template
// substitution) and the defaulted tree (as-specified plus schema defaults).
// Both variants are kept because some validations must distinguish an
// explicit override from a defaulted value.
//
// # Components
//
// Tree: a nested map keyed by option section names, with dotted-path Get,
// Filter and deep Merge operations.
//
// Accessor: applies the built-in instance schema (defaults and enum
// constraints) to a tree via CUE unification.
//
// URI: a parsed instance address in [login[:password]@]host:service form,
// with login normalization for the sharding subsystem.
package scope
