// Package ir provides the shared data model for tripleq.
//
// This package contains types and contracts only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - ID 0 is reserved: a wildcard inside a Pattern, "not found" from a
//     dictionary lookup, never a real term id
//   - Triples are values; a Cursor hands out copies
//   - Cursor order is subject-major and stable for a fixed store
//   - All JSON tags use snake_case
package ir
