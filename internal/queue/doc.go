// Package queue holds the queue domain model: entries, snapshots, subscriptions,
// and the pure functions computed from them (fingerprint, position metrics, status text).
//
// Nothing in this package performs I/O.
package queue
