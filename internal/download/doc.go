// Package download implements the job pipeline: request validation, the
// runner that drives one job through the fetch capability and archive
// builder, and the retention sweeper for finished jobs.
package download
