// Package sqlite provides a SQLite-backed ports.SnapshotStore for single-host
// deployments that want run snapshots to survive restarts without Redis.
package sqlite
