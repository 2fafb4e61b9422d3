/*
Package ports defines the driven ports (interfaces) of the statechart engine.

These interfaces decouple the dispatcher from the host's scheduling model and
from the storage backends used to record snapshots.

# Key Interfaces

  - Engine: the surface adapters (HTTP, MCP, CLI) drive.
  - TaskRunner: starts the asynchronous work behind TaskWait nodes.
  - Scheduler: marshals completions back onto the host's dispatch goroutine.
  - SnapshotStore: persists snapshots of a run (memory, Redis).
  - DistributedLocker: coordinates snapshot writes across replicas.
*/
package ports
