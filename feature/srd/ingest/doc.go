// Package ingest pulls raw rules documents from a content source and lands
// them in the database with content-addressed upserts. Re-running an import
// against unchanged upstream data performs zero writes beyond freshness
// timestamps, so the command is safe to schedule.
//
// The package also maintains the normalized projection tables (classes,
// spells, features and friends) that the derivation layer consumes.
package ingest
