// Package srd is the rules-content feature. It owns the full pipeline
// from raw document ingestion to queryable derived data:
//
//   - ingest: fetch documents from the upstream API, land them
//     content-addressed, project normalized rows
//   - derive: extract choice groups, prerequisites, grants, and
//     relationships from the raw payloads
//   - verify: consistency checks over the whole graph
//   - snapshot: per-table fingerprints for drift detection
//   - queries: character-sheet-style questions
//
// The feature itself exposes the read API over the derived tables.
package srd
