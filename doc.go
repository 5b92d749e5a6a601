// Package flowdag executes a user-defined topology: a directed acyclic
// graph of computation nodes, each with a programmable action, whose data
// flow is expressed solely through dependency edges.
//
// A Spec maps node names to NodeDefs. Run builds and starts a fresh run;
// Resume continues one from a previously obtained Snapshot. Both return a
// Handle exposing Start, Stop, GetSnapshot, and the OnData/OnError/OnDone
// event subscriptions.
//
// Node action callbacks and durable snapshot storage are the caller's
// responsibility — this package only defines their contract and emits
// snapshots for the caller to persist.
package flowdag
