// Package remote pulls customer master data from the backend GraphQL API
// and writes it into the local store.
//
// The query documents are embedded and checked against the embedded schema
// when a Client is built, so a malformed query fails at startup instead of
// on the first sync.
package remote
