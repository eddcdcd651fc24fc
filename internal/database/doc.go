// Package database provides the storage backends of the lending API.
//
// Two backends are supported and selected by DB_DRIVER:
//   - surrealdb: the Database interface over surrealdb.go (SurrealQL)
//   - postgres: a pgx connection pool
//
// # Interface Design
//
// The Database interface provides three query methods:
//   - Query: Returns multiple results (for SELECT queries returning lists)
//   - QueryOne: Returns a single result (for SELECT by ID)
//   - Execute: No return value (for CREATE/UPDATE/DELETE mutations)
//
// # Error Handling
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrConnection: Database connection issues
//   - ErrQuery: Query execution failures
//
// Both backends translate their unique-index violations to ErrDuplicate:
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // username already taken
//	}
//
// # Migrations
//
// Schema files are embedded from migrations/ and applied at startup by
// Migrate (SurrealDB) and MigratePostgres.
package database
