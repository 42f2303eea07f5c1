// Package imagestore persists captured images and the metadata index that
// describes them.
//
// # Layout
//
// Images are written to date-partitioned directories below the base path:
//
//	<base>/2024/06/21/allsky_20240621_223000.jpg
//	<base>/metadata.json
//
// The archive directory mirrors the same relative structure, so an archived
// image keeps its YYYY/MM/DD location.
//
// # Index
//
// The index maps each image path to its Record. It is rewritten, not
// appended, on every mutation, and only keeps records that are younger than
// the age horizon (30 days by default) and whose file still exists. Two
// backends are available: a JSON file (default) and SQLite.
//
// # Concurrency
//
// Mutations (Save, Import, Delete, Forget, PruneOlderThan, LoadAll) are
// serialized by a single writer lock. Reads may run concurrently with each
// other and can miss a write that is in progress.
package imagestore
