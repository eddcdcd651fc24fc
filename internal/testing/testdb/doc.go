// Package testdb provides SurrealDB test environments for repository tests.
//
// Each TestDB gets its own namespace with the embedded migrations applied,
// so tests run real queries against the real schema including the unique
// username index and the loan cascade event.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t) // skipped when SurrealDB is unreachable
//	    repo := repository.NewAccountRepository(tdb.DB)
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER
// and TEST_DB_PASSWORD. Set TEST_DB_REQUIRED to turn a missing database
// into a failure instead of a skip.
package testdb
