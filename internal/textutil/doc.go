// Package textutil provides text normalization helpers shared across the
// pipeline, primarily deterministic output filename derivation.
package textutil
