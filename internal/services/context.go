package services

import "context"

type contextKey int

const (
	jobIDKey contextKey = iota
	phaseKey
)

// WithJobID returns a context carrying the job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier, if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(jobIDKey).(string)
	return id, ok && id != ""
}

// WithPhase returns a context carrying the active pipeline phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext extracts the active pipeline phase name, if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	phase, ok := ctx.Value(phaseKey).(string)
	return phase, ok && phase != ""
}
