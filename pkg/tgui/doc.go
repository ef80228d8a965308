// Package tgui holds small Telegram UI helpers: inline keyboard builders,
// callback data helpers ("kind:payload") and label truncation.
package tgui
