// Package workspace manages the per-job scratch directories used by the boot
// animation pipeline.
//
// Each job receives {root}/{jobID} with a part0 frames subdirectory. Exactly
// one job owns a workspace; Acquire refuses to reuse an existing directory.
// With is the scoped form: the workspace is removed however the job ends.
package workspace
