// Package retention keeps the image corpus within a configured number of
// files.
//
// When the store holds more records than the ceiling, the oldest ones (by
// capture time, ties broken by path) are evicted. Each eviction either
// archives the file, moving it to a mirrored archive directory or uploading
// it to S3, or deletes it outright. Failures are isolated per file: one
// stuck file never blocks the rest of the sweep, and it stays indexed so a
// later sweep retries it.
//
// Evicted records can be written to a zstd-compressed JSON-lines manifest,
// so the metadata of deleted images survives their removal from the index.
//
// A cron-driven Scheduler runs the sweep periodically together with the
// index age prune.
package retention
