// Package pipeline drives a release document through the job state machine:
// validate, resolve assets, generate the base artifact, post-process it
// remotely, verify the result, deliver. Each phase is timed and recorded;
// any phase failure moves the job to the absorbing FAILED state and the
// error is returned to the caller, never swallowed.
package pipeline
