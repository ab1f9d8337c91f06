// Package release defines the canonical validated release document model.
//
// Raw JSON input is parsed and validated exactly once, at the start of a
// job; every downstream component consumes the typed Document and never a
// raw mapping.
package release
