// Package derive walks raw rules documents and materializes the derived
// graph: choice groups and options, prerequisites, grants, and entity
// relationships. The source documents carry no fixed schema for these
// substructures, so every extractor is heuristic and tolerant: shapes it
// does not recognize are skipped and counted, never fatal.
//
// Every write path is keyed by a stable derived identity, so re-running a
// pass against unchanged raw documents performs zero writes. That property
// substitutes for idempotent retries after a partially failed pass.
package derive
