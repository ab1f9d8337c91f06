// Package notifications sends ntfy push notifications for job outcomes.
// When no topic is configured the service degrades to a noop, so callers
// never need to branch on whether notifications are enabled.
package notifications
