// Package model defines the domain data structures shared across the service:
// download jobs, their status enum, and the quality selector. Job values are
// plain data; the registry owns the canonical copies and hands out snapshots.
package model
