// Package services defines the shared error taxonomy and context carriers
// used by the pipeline and its collaborator clients.
//
// Errors are tagged with sentinel markers (ErrValidation, ErrTimeout, ...)
// so the job boundary can classify a failure without knowing which
// collaborator produced it, and carry a stable machine-readable code, a
// human message, and an actionable suggestion for the calling layer.
package services
