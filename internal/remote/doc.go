// Package remote talks to the RSUII queue-display site.
//
// The site is an ASP.NET WebForms page: picking a clinic or a doctor is a
// postback that must echo every hidden field of the current form (view state,
// event validation, ...) with only the changed dropdown and __EVENTTARGET
// overridden. FormState models that echo as a value; Client replays the
// GET → clinic POST → doctor POST sequence and Extract turns the final page
// into a queue.Snapshot.
package remote
