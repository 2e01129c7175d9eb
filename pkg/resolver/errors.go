package resolver

import (
	"errors"
	"fmt"
)

// Code classifies a resolution error.
type Code string

const (
	// CodeUnknownInstance reports an instance absent from the document.
	CodeUnknownInstance Code = "unknown_instance"

	// CodeUnknownPeer reports a reference to an instance that is not a
	// member of the replicaset.
	CodeUnknownPeer Code = "unknown_peer"

	// CodeSchema reports a malformed option tree, a value rejected by the
	// instance schema, or a cyclic credential role definition.
	CodeSchema Code = "schema"

	// CodeFailoverConflict reports an option combination incompatible with
	// the replicaset's failover mode.
	CodeFailoverConflict Code = "failover_conflict"

	// CodeAnonymousReplica reports an anonymous replica in a position that
	// requires a persistent identity.
	CodeAnonymousReplica Code = "anonymous_replica_conflict"

	// CodeBootstrapConflict reports an option combination incompatible with
	// the replicaset's bootstrap strategy.
	CodeBootstrapConflict Code = "bootstrap_conflict"

	// CodeMissingShardingURI reports a storage-role instance without a
	// resolvable sharding address.
	CodeMissingShardingURI Code = "missing_sharding_uri"

	// CodeMissingShardingRole reports a sharding credential whose role set
	// does not include a sharding role.
	CodeMissingShardingRole Code = "missing_sharding_role"

	// CodeMultipleRebalancers reports more than one replicaset carrying the
	// rebalancer role.
	CodeMultipleRebalancers Code = "multiple_rebalancers"

	// CodeCorruptSnapshot reports a bootstrap record without the UUIDs a
	// valid record must carry.
	CodeCorruptSnapshot Code = "corrupt_snapshot"

	// CodeIdentityMismatch reports a conflict between configured and
	// persisted identity.
	CodeIdentityMismatch Code = "identity_mismatch"

	// CodePrecondition reports a mode-restricted query invoked outside its
	// valid mode. This is a caller bug, not a configuration error.
	CodePrecondition Code = "precondition_violation"
)

// Error is a resolution error carrying structured fields alongside the
// classification code. Message rendering stays in Error(); callers branch on
// Code and the fields, never on message text.
type Error struct {
	// Code is the error classification.
	Code Code `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Instance is the offending instance name, if applicable.
	Instance string `json:"instance,omitempty"`

	// Replicaset is the offending replicaset name, if applicable.
	Replicaset string `json:"replicaset,omitempty"`

	// Group is the offending group name, if applicable.
	Group string `json:"group,omitempty"`

	// Details contains the conflicting option names and values.
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Instance != "" {
		msg += fmt.Sprintf(" (instance=%s", e.Instance)
		if e.Replicaset != "" {
			msg += fmt.Sprintf(", replicaset=%s", e.Replicaset)
		}
		if e.Group != "" {
			msg += fmt.Sprintf(", group=%s", e.Group)
		}
		msg += ")"
	} else if e.Replicaset != "" {
		msg += fmt.Sprintf(" (replicaset=%s)", e.Replicaset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the classification code of an error, or the empty code for
// errors that did not originate in this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) at(instance, replicaset, group string) *Error {
	e.Instance = instance
	e.Replicaset = replicaset
	e.Group = group
	return e
}

func (e *Error) withDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) withCause(err error) *Error {
	e.Err = err
	return e
}
