// Package monitor polls the queue for every subscription and decides when a
// status message is due.
//
// A subscriber is notified when the queue fingerprint differs from the last one
// sent, or when the force interval has elapsed since the last notification.
// Tracking state is persisted only after the message was delivered, so a failed
// send is retried on the next tick.
package monitor
