package core

import (
	"fmt"
	"os"

	"metacore/internal/infra/persistence/memory"
	"metacore/internal/infra/persistence/postgres"
	"metacore/internal/infra/persistence/sqlite"
	"metacore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// NewDefaultEngine constructs an invariant engine carrying the built-in
// graph invariants.
func NewDefaultEngine() *domain.InvariantEngine {
	engine := domain.NewInvariantEngine()
	for _, inv := range DefaultInvariants() {
		engine.Register(inv)
	}
	return engine
}

// DefaultInvariants returns the built-in invariants in registration order.
func DefaultInvariants() []domain.Invariant {
	return []domain.Invariant{
		AssociationEndpointsInvariant{},
		CardinalityBoundsInvariant{},
		RightsScopeInvariant{},
		AttributeNameUniquenessInvariant{},
	}
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	METACORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	METACORE_SQLITE_PATH: path to sqlite file (default ./metacore.db)
//	METACORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.InvariantEngine) (PersistentStore, error) {
	driver := os.Getenv("METACORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("METACORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("METACORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
