// Package storage persists subscriptions.
//
// Three drivers share one Store contract:
//   - file: a JSON array rewritten wholesale (tmp file + rename) on every mutation
//   - sqlite: one row per chat in a modernc.org/sqlite database
//   - redis: one hash field per chat, updated under WATCH
package storage
