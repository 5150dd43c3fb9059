// Package dag holds the structural view of a belief network: which node is a
// parent of which. It is used while assembling a network to reject links to
// nodes that were never added, to detect cycles, and to produce a stable
// parents-before-children ordering for reporting.
//
// The graph is keyed by string IDs. Insertion order is remembered so that
// every ordering the package returns is deterministic.
package dag
