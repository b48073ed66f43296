// Package parallel runs independent jobs with bounded concurrency and
// collects one result per job.
//
// The reminder scanner uses it so that one slow notification delivery does
// not hold up the others in the same pass.
package parallel
