// Package srdapi is the client for the external rules content API.
//
// The ContentSource interface is the seam the ingest pipeline depends on:
// listing the resources of one entity kind and fetching a single raw
// document by its source key. The HTTP implementation retries transient
// failures (429 and 5xx) with exponential backoff and enforces a minimum
// interval between requests so bulk imports stay polite.
//
// Payloads are returned as raw JSON; no schema is assumed here. Shape
// interpretation belongs to the ingest and derive packages.
package srdapi
