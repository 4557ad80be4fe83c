// Package models defines the relational schema for imported rules content.
//
// The tables fall into four layers:
//
//   - sources and raw_entities: immutable-until-changed raw JSON payloads,
//     keyed by (source, entity type, source key) and tagged with a content hash.
//   - Normalized entities (classes, subclasses, features, spells, items,
//     conditions, monsters): scalar projections of raw payloads, each keeping
//     a back-reference to the raw entity it was derived from.
//   - Derived cross-reference tables: choice groups/options, prerequisites,
//     grants, and the class/subclass/spell join tables.
//   - Bookkeeping: import_runs and import_snapshots.
//
// Every derived table carries the natural key its loader deduplicates on, so
// re-running a loader against unchanged raw payloads performs zero writes.
package models
