// Package notifications delivers run outcomes via ntfy.
//
// The ntfy implementation posts plain-text messages to the topic URL
// configured under [notifications] and degrades to a no-op when no topic is
// set. Delivery failures are returned to the caller, which logs them; a
// notification never changes the outcome of a run.
package notifications
