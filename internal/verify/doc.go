// Package verify inspects finished artifacts locally, with no collaborator
// calls: a seven-check verification report against declared expectations,
// and a before/after diff summary.
//
// Inspection is best-effort. When no document inspector is available the
// engine returns a vacuous report rather than failing the job.
package verify
