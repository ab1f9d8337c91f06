// Package job defines the aggregate result contract for a pipeline run:
// lifecycle states, per-phase step records, artifact metadata, and the
// options that shape a run. The serialized Job is the contract other layers
// depend on.
package job
