package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/scope"
)

// fakeCatalog serves a fixed saved identity as a live catalog would.
type fakeCatalog struct {
	saved *catalog.SavedIdentity
	err   error
}

func (c *fakeCatalog) Names(_ context.Context) (*catalog.SavedIdentity, error) {
	return c.saved, c.err
}

// fakeSnapshots serves a fixed saved identity as an on-disk bootstrap record
// would.
type fakeSnapshots struct {
	saved *catalog.SavedIdentity
	err   error
}

func (s *fakeSnapshots) GetPath(_ scope.Tree) (string, bool) {
	if s.saved == nil && s.err == nil {
		return "", false
	}
	return "var/lib/fake/identity.yaml", true
}

func (s *fakeSnapshots) GetNames(_ context.Context, _ string) (*catalog.SavedIdentity, error) {
	return s.saved, s.err
}

const identityDocument = `
groups:
  g-1:
    replicasets:
      r-1:
        database:
          replicaset_uuid: 11111111-1111-4111-8111-111111111111
        instances:
          i-1:
            database:
              instance_uuid: 22222222-2222-4222-8222-222222222222
          i-2: {}
`

func consistentIdentity() *catalog.SavedIdentity {
	return &catalog.SavedIdentity{
		InstanceName:   "i-1",
		InstanceUUID:   "22222222-2222-4222-8222-222222222222",
		ReplicasetName: "r-1",
		ReplicasetUUID: "11111111-1111-4111-8111-111111111111",
		PeerUUIDs: map[string]string{
			"i-1": "22222222-2222-4222-8222-222222222222",
			"i-2": "33333333-3333-4333-8333-333333333333",
		},
	}
}

func TestResolver_Resolve_ConsistentSavedIdentity(t *testing.T) {
	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: consistentIdentity()})

	data, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	saved := data.SavedIdentity()
	if saved == nil {
		t.Fatal("Expected the saved identity to be exposed")
	}
	if saved.InstanceUUID != "22222222-2222-4222-8222-222222222222" {
		t.Errorf("Unexpected saved instance UUID: %q", saved.InstanceUUID)
	}
}

func TestResolver_Resolve_InstanceUUIDMismatch(t *testing.T) {
	saved := consistentIdentity()
	saved.InstanceUUID = "99999999-9999-4999-8999-999999999999"
	saved.PeerUUIDs["i-1"] = saved.InstanceUUID

	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: saved})

	_, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	wantCode(t, err, CodeIdentityMismatch)

	// The report must cite both conflicting values
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected a resolver error, got %T", err)
	}
	if e.Details["configured"] != "22222222-2222-4222-8222-222222222222" {
		t.Errorf("Expected the configured UUID in details, got %v", e.Details["configured"])
	}
	if e.Details["saved"] != "99999999-9999-4999-8999-999999999999" {
		t.Errorf("Expected the saved UUID in details, got %v", e.Details["saved"])
	}
}

func TestResolver_Resolve_ReplicasetNameMismatch(t *testing.T) {
	saved := consistentIdentity()
	saved.ReplicasetName = "r-old"

	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: saved})

	_, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	wantCode(t, err, CodeIdentityMismatch)
}

func TestResolver_Resolve_SavedWithoutUUIDs(t *testing.T) {
	saved := consistentIdentity()
	saved.InstanceUUID = ""

	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: saved})

	_, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	wantCode(t, err, CodeCorruptSnapshot)
}

func TestResolver_Resolve_NoConfiguredUUID(t *testing.T) {
	// i-2 configures no instance UUID; a present record always carries
	// one, so the UUID resolves from the persisted identity.
	saved := consistentIdentity()
	saved.InstanceName = "i-2"
	saved.InstanceUUID = "33333333-3333-4333-8333-333333333333"

	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: saved})

	data, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-2", state)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := data.SavedIdentity().InstanceUUID; got != "33333333-3333-4333-8333-333333333333" {
		t.Errorf("Unexpected saved instance UUID: %q", got)
	}
}

func TestResolver_Resolve_CatalogFailure(t *testing.T) {
	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{err: fmt.Errorf("storage offline")})

	_, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	wantCode(t, err, CodeCorruptSnapshot)
}

func TestResolver_Resolve_SnapshotIdentity(t *testing.T) {
	// Not bootstrapped: saved identity comes from the bootstrap record
	r := newTestResolver(t, Options{Snapshots: &fakeSnapshots{saved: consistentIdentity()}})

	data, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", catalog.NotBootstrapped)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if data.SavedIdentity() == nil {
		t.Fatal("Expected the snapshot identity to be exposed")
	}
}

func TestResolver_Resolve_UnreadableSnapshot(t *testing.T) {
	r := newTestResolver(t, Options{Snapshots: &fakeSnapshots{err: fmt.Errorf("truncated record")}})

	_, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", catalog.NotBootstrapped)
	wantCode(t, err, CodeCorruptSnapshot)
}

func TestResolver_Resolve_FreshBootstrap(t *testing.T) {
	// No catalog and no snapshot record: nothing to validate against
	data := mustResolve(t, identityDocument, "i-1")
	if data.SavedIdentity() != nil {
		t.Error("Expected no saved identity on a fresh bootstrap")
	}
}

func TestConfigData_MissingNames_Fresh(t *testing.T) {
	data := mustResolve(t, identityDocument, "i-1")

	missing := data.MissingNames()

	if missing.Replicaset == nil {
		t.Fatal("Expected the replicaset name to be missing on a fresh bootstrap")
	}
	if uuid, ok := missing.Replicaset["r-1"]; !ok || uuid != "11111111-1111-4111-8111-111111111111" {
		t.Errorf("Expected the configured replicaset UUID, got (%q, %v)", uuid, ok)
	}

	if len(missing.Peers) != 2 {
		t.Fatalf("Expected both peers to be missing, got %v", missing.Peers)
	}
	if missing.Peers["i-1"] != "22222222-2222-4222-8222-222222222222" {
		t.Errorf("Expected the configured UUID for i-1, got %q", missing.Peers["i-1"])
	}
	if missing.Peers["i-2"] != "" {
		t.Errorf("Expected an empty UUID for i-2, got %q", missing.Peers["i-2"])
	}
}

func TestConfigData_MissingNames_Complete(t *testing.T) {
	r := newTestResolver(t, Options{})
	state := catalog.Bootstrapped(&fakeCatalog{saved: consistentIdentity()})

	data, err := r.Resolve(context.Background(), loadDoc(t, identityDocument), "i-1", state)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	missing := data.MissingNames()
	if missing.Replicaset != nil {
		t.Errorf("Expected no missing replicaset name, got %v", missing.Replicaset)
	}
	if len(missing.Peers) != 0 {
		t.Errorf("Expected no missing peers, got %v", missing.Peers)
	}
}

func TestConfigData_MissingNames_SkipsAnonymous(t *testing.T) {
	doc := `
groups:
  g-1:
    replicasets:
      r-1:
        instances:
          i-1: {}
          i-2:
            replication:
              anon: true
`
	data := mustResolve(t, doc, "i-1")

	missing := data.MissingNames()
	if _, ok := missing.Peers["i-2"]; ok {
		t.Error("Expected the anonymous replica to be skipped")
	}
	if _, ok := missing.Peers["i-1"]; !ok {
		t.Error("Expected the named peer to be reported")
	}
}
