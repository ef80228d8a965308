// Package logx is a small value-type wrapper around zerolog.
//
// Console output is human readable with a short caller, the optional file
// sink writes JSON lines, and the optional Telegram sink batches warnings and
// errors to an admin chat under a rate limit. Service.Apply swaps sinks and
// levels at runtime.
package logx
