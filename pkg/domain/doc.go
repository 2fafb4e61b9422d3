/*
Package domain contains the core types shared by the statechart engine and its adapters.

It defines the vocabulary of a chart (node kinds, events, the host-supplied callables),
the runtime snapshot of an active configuration, the observer hooks and the error taxonomy.
The package is kept free of I/O so that adapters (HTTP, MCP, Redis) and the runtime can
depend on it without depending on each other.

# Key Entities

  - NodeKind: the tagged variant of a graph vertex (state, choice, split, ...).
  - Event: an opaque identifier fed to Engine.Trigger.
  - Action, Condition, Task: host callables attached to nodes and transitions.
  - Activity: the handle a Wait node gives to the host so it can signal completion.
  - Snapshot: a serializable view of the active configuration.
  - LifecycleHooks: observer callbacks invoked around every hook execution.
*/
package domain
