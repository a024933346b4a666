// Copyright © 2018 One Concern

// Package storage provides the interface to the physical key-value document database.
//
// A Store knows nothing about hashes, commits or branches: it puts and gets opaque payloads by key.
//
// This package supports the following backends:
//   - badger (embedded LSM key-value store)
//   - local file system (afero), with optional zstd compression
//   - memory (immutable radix tree), mostly for tests and ephemeral use
package storage
