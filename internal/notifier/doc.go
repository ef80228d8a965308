// Package notifier delivers outbound chat messages asynchronously.
//
// Messages are queued and sent by a small worker pool under a shared rate
// limit. Transient send failures are retried with exponential backoff and
// jitter; errors wrapping transport.ErrPermanent (bot blocked, chat gone) are
// not retried.
//
// Notify is fire-and-forget. Deliver waits for the outcome, which is what the
// queue monitor needs before it records a notification as sent.
//
// A short in-memory history of delivered messages backs the /health command.
package notifier
