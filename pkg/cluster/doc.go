// Package cluster models the cluster-wide configuration document: a tree of
// groups, replicasets and instances, each level able to override options for
// the scopes below it.
//
// The document is parsed once from YAML and is read-only afterwards. The
// package also implements the topology locator: finding the group/replicaset
// record of an instance and merging the four option scopes into the
// instance's as-specified option tree.
package cluster
