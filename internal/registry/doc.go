// Package registry is the single point of mutual exclusion for job state.
// The runner mutates jobs through Update; every other reader gets snapshots.
package registry
