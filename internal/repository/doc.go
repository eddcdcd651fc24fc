// Package repository implements account, loan and request log storage.
//
// Each store has a SurrealDB implementation over database.Database and a
// PostgreSQL implementation over a pgx pool. Both satisfy the repository
// interfaces declared in the service package.
//
// # Conventions
//
//   - Getters return (nil, nil) when the record does not exist
//   - Unique username violations surface as database.ErrDuplicate
//   - Loan amounts are stored as exact decimals (string in SurrealDB,
//     NUMERIC(18,2) in PostgreSQL)
//   - Timestamps are assigned by the database on write
package repository
