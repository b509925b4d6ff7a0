// Package client assembles the listing client from its parts.
//
// # Overview
//
//   - Local persistence bootstrap (InitDatabase, RunMigrations): an SQLite
//     database with embedded goose migrations, and the Repositories on top
//     of it (session metadata, drafts).
//   - Backend selection (Connect): the document store (memory, MongoDB or
//     PostgreSQL), the object store (memory, S3 or MinIO) and the change
//     event bus (NATS, or none) named by config.Config.
//   - App (NewApp): the local database, backend, session manager, image
//     ingestion pipeline and listing repository wired together.
//
// # Error Handling
//
// Configuration problems are reported as ErrUnknownDriver and
// ErrMissingConfig; connection errors from the stores are returned wrapped.
package client
