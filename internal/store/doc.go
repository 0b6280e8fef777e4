// Package store provides a SQLite-backed triple store for tripleq.
//
// The store is built once by Import and queried read-only afterwards. It
// implements both capabilities the engine consumes:
//   - Dictionary: id <-> string per role, plus substring search over
//     literal objects
//   - Triples: pattern search returning an ordered Cursor, and total count
//
// # Ordering
//
// Every multi-row query carries ORDER BY (see internal/querysql):
//   - triples: subject ASC, predicate ASC, object ASC
//   - substring candidates: id ASC
//
// Ids are assigned in binary string order within each role at import time,
// so candidate order equals string order.
//
// # Cursors
//
// A Cursor pages with keyset pagination, (s, p, o) > (last) LIMIT batch.
// No result set stays open between Next calls, so the single connection
// can serve nested searches (two-hop joins) without deadlocking.
//
// # Database Configuration
//
//   - WAL mode for read-write opens
//   - busy_timeout=5000
//   - query_only for read-only opens
//   - user_version tracks schema migrations
package store
