package catalog

import (
	"context"
	"path/filepath"
	"testing"
)

// setupTestCatalog creates a file-backed SQLite catalog for testing
func setupTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()

	c, err := NewSQLiteCatalog(Config{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
	})
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	ctx := context.Background()
	if err := c.Init(ctx); err != nil {
		t.Fatalf("failed to initialize catalog: %v", err)
	}

	if err := c.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate catalog: %v", err)
	}

	return c
}

// TestCatalogLifecycle tests database initialization and closure
func TestCatalogLifecycle(t *testing.T) {
	c := setupTestCatalog(t)

	if err := c.Close(); err != nil {
		t.Fatalf("failed to close catalog: %v", err)
	}

	if _, err := NewSQLiteCatalog(Config{}); err == nil {
		t.Fatal("expected an empty path to be rejected")
	}
}

// TestCatalogNamesEmpty tests reading identity from a fresh catalog
func TestCatalogNamesEmpty(t *testing.T) {
	c := setupTestCatalog(t)
	defer c.Close()

	saved, err := c.Names(context.Background())
	if err != nil {
		t.Fatalf("failed to read identity: %v", err)
	}
	if saved != nil {
		t.Fatalf("expected no identity in a fresh catalog, got %+v", saved)
	}
}

// TestCatalogSaveAndReadIdentity tests the identity round trip
func TestCatalogSaveAndReadIdentity(t *testing.T) {
	c := setupTestCatalog(t)
	defer c.Close()

	ctx := context.Background()
	identity := &SavedIdentity{
		InstanceName:   "storage-001",
		InstanceUUID:   "22222222-2222-4222-8222-222222222222",
		ReplicasetName: "storage-a",
		ReplicasetUUID: "11111111-1111-4111-8111-111111111111",
		PeerUUIDs: map[string]string{
			"storage-001": "22222222-2222-4222-8222-222222222222",
			"storage-002": "33333333-3333-4333-8333-333333333333",
		},
	}

	if err := c.SaveIdentity(ctx, identity); err != nil {
		t.Fatalf("failed to save identity: %v", err)
	}

	saved, err := c.Names(ctx)
	if err != nil {
		t.Fatalf("failed to read identity: %v", err)
	}
	if saved == nil {
		t.Fatal("expected a saved identity")
	}
	if saved.InstanceName != identity.InstanceName || saved.InstanceUUID != identity.InstanceUUID {
		t.Errorf("instance identity mismatch: %+v", saved)
	}
	if saved.ReplicasetName != identity.ReplicasetName || saved.ReplicasetUUID != identity.ReplicasetUUID {
		t.Errorf("replicaset identity mismatch: %+v", saved)
	}
	if len(saved.PeerUUIDs) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(saved.PeerUUIDs))
	}
	if saved.PeerUUIDs["storage-002"] != "33333333-3333-4333-8333-333333333333" {
		t.Errorf("peer UUID mismatch: %q", saved.PeerUUIDs["storage-002"])
	}
}

// TestCatalogSaveIdentityReplaces tests that saving twice keeps one row
func TestCatalogSaveIdentityReplaces(t *testing.T) {
	c := setupTestCatalog(t)
	defer c.Close()

	ctx := context.Background()
	first := &SavedIdentity{
		InstanceName:   "storage-001",
		InstanceUUID:   "22222222-2222-4222-8222-222222222222",
		ReplicasetName: "storage-a",
		ReplicasetUUID: "11111111-1111-4111-8111-111111111111",
	}
	if err := c.SaveIdentity(ctx, first); err != nil {
		t.Fatalf("failed to save identity: %v", err)
	}

	second := *first
	second.InstanceUUID = "44444444-4444-4444-8444-444444444444"
	if err := c.SaveIdentity(ctx, &second); err != nil {
		t.Fatalf("failed to replace identity: %v", err)
	}

	saved, err := c.Names(ctx)
	if err != nil {
		t.Fatalf("failed to read identity: %v", err)
	}
	if saved.InstanceUUID != second.InstanceUUID {
		t.Errorf("expected the replacing identity, got %q", saved.InstanceUUID)
	}
}

// TestCatalogSavePeer tests the incremental name-assignment write path
func TestCatalogSavePeer(t *testing.T) {
	c := setupTestCatalog(t)
	defer c.Close()

	ctx := context.Background()
	identity := &SavedIdentity{
		InstanceName:   "storage-001",
		InstanceUUID:   "22222222-2222-4222-8222-222222222222",
		ReplicasetName: "storage-a",
		ReplicasetUUID: "11111111-1111-4111-8111-111111111111",
	}
	if err := c.SaveIdentity(ctx, identity); err != nil {
		t.Fatalf("failed to save identity: %v", err)
	}

	if err := c.SavePeer(ctx, "storage-003", "55555555-5555-4555-8555-555555555555"); err != nil {
		t.Fatalf("failed to save peer: %v", err)
	}
	// Upsert: saving again with a new UUID replaces the mapping
	if err := c.SavePeer(ctx, "storage-003", "66666666-6666-4666-8666-666666666666"); err != nil {
		t.Fatalf("failed to update peer: %v", err)
	}

	saved, err := c.Names(ctx)
	if err != nil {
		t.Fatalf("failed to read identity: %v", err)
	}
	if saved.PeerUUIDs["storage-003"] != "66666666-6666-4666-8666-666666666666" {
		t.Errorf("expected the updated peer UUID, got %q", saved.PeerUUIDs["storage-003"])
	}
}
