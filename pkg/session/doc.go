/*
Package session records run snapshots into a ports.SnapshotStore.

A Manager serializes writes per run ID, in-process with reference-counted
mutexes and, when configured, across replicas with a ports.DistributedLocker.
It implements runner.Recorder, so a runner.Loop can persist every configuration
change without knowing which store sits behind it.
*/
package session
