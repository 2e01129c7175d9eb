package resolver

import (
	"strings"
	"testing"

	"github.com/meridiandb/meridian/pkg/sharding"
)

const shardedDocument = `
iproto:
  advertise:
    peer:
      uri: "{{ instance_name }}:3301"
groups:
  storages:
    sharding:
      roles: [storage]
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
          storage-a-002: {}
      storage-b:
        instances:
          storage-b-001: {}
  routers:
    sharding:
      roles: [router]
    replicasets:
      router-a:
        instances:
          router-a-001: {}
`

func TestConfigData_Sharding_Topology(t *testing.T) {
	data := mustResolve(t, shardedDocument, "router-a-001")

	topology, err := data.Sharding()
	if err != nil {
		t.Fatalf("Sharding failed: %v", err)
	}

	if topology.BoxCfgMode != sharding.BoxCfgModeManual {
		t.Errorf("Unexpected box cfg mode: %q", topology.BoxCfgMode)
	}
	if topology.IdentificationMode != sharding.IdentificationModeNameKey {
		t.Errorf("Unexpected identification mode: %q", topology.IdentificationMode)
	}

	// Only replicasets with storage-role members appear
	if len(topology.Sharding) != 2 {
		t.Fatalf("Expected 2 sharded replicasets, got %d", len(topology.Sharding))
	}
	if _, ok := topology.Sharding["router-a"]; ok {
		t.Error("Router replicaset must not appear in the topology")
	}

	rs := topology.Sharding["storage-a"]
	if rs == nil {
		t.Fatal("storage-a missing from the topology")
	}
	if len(rs.Replicas) != 2 {
		t.Fatalf("Expected 2 replicas in storage-a, got %d", len(rs.Replicas))
	}
	if rs.Master != "auto" {
		t.Errorf("Expected master 'auto', got %q", rs.Master)
	}

	// Template substitution and guest login normalization both applied
	replica := rs.Replicas["storage-a-001"]
	if replica == nil {
		t.Fatal("storage-a-001 missing from the replica set")
	}
	if replica.URI != "guest@storage-a-001:3301" {
		t.Errorf("Expected 'guest@storage-a-001:3301', got %q", replica.URI)
	}
}

func TestConfigData_Sharding_TuningDefaults(t *testing.T) {
	data := mustResolve(t, shardedDocument, "storage-a-001")

	topology, err := data.Sharding()
	if err != nil {
		t.Fatalf("Sharding failed: %v", err)
	}

	if topology.Tuning.BucketCount != 3000 {
		t.Errorf("Expected default bucket_count 3000, got %d", topology.Tuning.BucketCount)
	}
	if topology.Tuning.FailoverPingTimeout != 5 {
		t.Errorf("Expected default failover_ping_timeout 5, got %v", topology.Tuning.FailoverPingTimeout)
	}
	if topology.Tuning.RebalancerMaxReceiving != 100 {
		t.Errorf("Expected default rebalancer_max_receiving 100, got %d", topology.Tuning.RebalancerMaxReceiving)
	}
}

func TestConfigData_Sharding_ExplicitLoginPreserved(t *testing.T) {
	doc := `
groups:
  storages:
    sharding:
      roles: [storage]
    iproto:
      advertise:
        sharding:
          uri: "storage:secret@{{ instance_name }}:3302"
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	topology, err := data.Sharding()
	if err != nil {
		t.Fatalf("Sharding failed: %v", err)
	}

	replica := topology.Sharding["storage-a"].Replicas["storage-a-001"]
	if replica.URI != "storage:secret@storage-a-001:3302" {
		t.Errorf("Expected the explicit login to survive, got %q", replica.URI)
	}
}

func TestConfigData_Sharding_MissingURI(t *testing.T) {
	doc := `
groups:
  storages:
    sharding:
      roles: [storage]
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	_, err := data.Sharding()
	wantCode(t, err, CodeMissingShardingURI)
}

func TestConfigData_Sharding_MultipleRebalancers(t *testing.T) {
	doc := `
iproto:
  advertise:
    peer:
      uri: "{{ instance_name }}:3301"
sharding:
  roles: [storage, rebalancer]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
      storage-b:
        instances:
          storage-b-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	_, err := data.Sharding()
	wantCode(t, err, CodeMultipleRebalancers)

	// The report must name every offending replicaset
	msg := err.Error()
	for _, name := range []string{"storage-a", "storage-b"} {
		if !strings.Contains(msg, name) {
			t.Errorf("Expected the error to name %q: %s", name, msg)
		}
	}
}

func TestConfigData_Sharding_RebalancerWithoutStorage(t *testing.T) {
	// A rebalancer-only replicaset contributes no topology entry but still
	// counts toward the cluster-wide rebalancer limit.
	doc := `
iproto:
  advertise:
    peer:
      uri: "{{ instance_name }}:3301"
groups:
  storages:
    replicasets:
      storage-a:
        sharding:
          roles: [storage, rebalancer]
        instances:
          storage-a-001: {}
      balance:
        sharding:
          roles: [rebalancer]
        instances:
          balance-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	_, err := data.Sharding()
	wantCode(t, err, CodeMultipleRebalancers)
}

func TestConfigData_Sharding_UUIDsAndZones(t *testing.T) {
	doc := `
iproto:
  advertise:
    peer:
      uri: "{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        database:
          replicaset_uuid: 11111111-1111-4111-8111-111111111111
        instances:
          storage-a-001:
            database:
              instance_uuid: 22222222-2222-4222-8222-222222222222
            sharding:
              zone: 2
`
	data := mustResolve(t, doc, "storage-a-001")

	topology, err := data.Sharding()
	if err != nil {
		t.Fatalf("Sharding failed: %v", err)
	}

	rs := topology.Sharding["storage-a"]
	if rs.UUID != "11111111-1111-4111-8111-111111111111" {
		t.Errorf("Expected the replicaset UUID, got %q", rs.UUID)
	}
	replica := rs.Replicas["storage-a-001"]
	if replica.UUID != "22222222-2222-4222-8222-222222222222" {
		t.Errorf("Expected the instance UUID, got %q", replica.UUID)
	}
	if replica.Zone != 2 {
		t.Errorf("Expected zone 2, got %d", replica.Zone)
	}
}

func TestConfigData_Sharding_CredentialRoleGranted(t *testing.T) {
	doc := `
credentials:
  users:
    storage:
      roles: [operator]
  roles:
    operator:
      roles: [sharding]
iproto:
  advertise:
    sharding:
      uri: "storage@{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	if _, err := data.Sharding(); err != nil {
		t.Fatalf("Expected the nested role grant to pass: %v", err)
	}
}

func TestConfigData_Sharding_CredentialRoleMissing(t *testing.T) {
	doc := `
credentials:
  users:
    storage:
      roles: [operator]
  roles:
    operator:
      roles: []
iproto:
  advertise:
    sharding:
      uri: "storage@{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	_, err := data.Sharding()
	wantCode(t, err, CodeMissingShardingRole)
}

func TestConfigData_Sharding_CredentialRoleCycle(t *testing.T) {
	doc := `
credentials:
  users:
    storage:
      roles: [a]
  roles:
    a:
      roles: [b]
    b:
      roles: [a]
iproto:
  advertise:
    sharding:
      uri: "storage@{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	_, err := data.Sharding()
	wantCode(t, err, CodeSchema)
}

func TestConfigData_Sharding_DiamondRolesNotACycle(t *testing.T) {
	// Two paths reaching the same role is a diamond, not a cycle
	doc := `
credentials:
  users:
    storage:
      roles: [a, b]
  roles:
    a:
      roles: [shared]
    b:
      roles: [shared]
    shared:
      roles: [sharding]
iproto:
  advertise:
    sharding:
      uri: "storage@{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	if _, err := data.Sharding(); err != nil {
		t.Fatalf("Expected the diamond to pass: %v", err)
	}
}

func TestConfigData_Sharding_UncatalogedLoginPasses(t *testing.T) {
	// A login without a credentials entry is managed externally
	doc := `
credentials:
  users:
    someone-else: {}
iproto:
  advertise:
    sharding:
      uri: "external@{{ instance_name }}:3301"
sharding:
  roles: [storage]
groups:
  storages:
    replicasets:
      storage-a:
        instances:
          storage-a-001: {}
`
	data := mustResolve(t, doc, "storage-a-001")

	if _, err := data.Sharding(); err != nil {
		t.Fatalf("Expected an uncataloged login to pass: %v", err)
	}
}
