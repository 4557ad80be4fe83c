// Package verify runs read-only consistency checks over the derived graph.
// Checks never raise on bad data: violations are collected into a report
// whose errors list must be empty for an import to be considered
// consistent; warnings are informational.
package verify
