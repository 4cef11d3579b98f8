//go:build integration

package ruleset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL testcontainer and applies the schema.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	migrationSQL, err := os.ReadFile("../migrations/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgres.Terminate(ctx)
	}
	return db, cleanup
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	def := courseDefinition()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt

	if err := store.Add(def); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	retrieved, err := store.Get(def.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if retrieved.Name != def.Name {
		t.Errorf("Name = %s, want %s", retrieved.Name, def.Name)
	}
	if len(retrieved.Rules) != len(def.Rules) {
		t.Errorf("len(Rules) = %d, want %d", len(retrieved.Rules), len(def.Rules))
	}
	// Nested composite children survive the JSONB round trip.
	if len(retrieved.Rules[2].Children) != 3 {
		t.Errorf("composite children = %d, want 3", len(retrieved.Rules[2].Children))
	}
}

func TestPostgresStoreAddDuplicate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	def := courseDefinition()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt

	if err := store.Add(def); err != nil {
		t.Fatalf("first Add() failed: %v", err)
	}
	if err := store.Add(def); err == nil {
		t.Fatal("Add() with duplicate ID should fail")
	}
}

func TestPostgresStoreListActive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)

	active := courseDefinition()
	active.CreatedAt = time.Now()
	active.UpdatedAt = active.CreatedAt
	if err := store.Add(active); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	inactive := courseDefinition()
	inactive.ID = "retired"
	inactive.Active = false
	inactive.CreatedAt = time.Now()
	inactive.UpdatedAt = inactive.CreatedAt
	if err := store.Add(inactive); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	defs, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != active.ID {
		t.Errorf("ListActive() = %d defs, want only the active one", len(defs))
	}
}

func TestPostgresStoreUpdate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	def := courseDefinition()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	if err := store.Add(def); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	def.Description = "updated"
	def.Rules = def.Rules[:2]
	if err := store.Update(def); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	retrieved, err := store.Get(def.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if retrieved.Description != "updated" {
		t.Errorf("Description = %s, want updated", retrieved.Description)
	}
	if len(retrieved.Rules) != 2 {
		t.Errorf("len(Rules) = %d, want 2", len(retrieved.Rules))
	}
}

func TestPostgresStoreUpdateNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	def := courseDefinition()
	if err := store.Update(def); err == nil {
		t.Fatal("Update() on missing ruleset should fail")
	}
}

func TestPostgresStoreDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(db)
	def := courseDefinition()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	if err := store.Add(def); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err := store.Delete(def.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(def.ID); err == nil {
		t.Fatal("Get() after Delete() should fail")
	}
	if err := store.Delete(def.ID); err == nil {
		t.Fatal("second Delete() should fail")
	}
}
