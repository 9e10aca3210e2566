package store

import _ "embed"

// Schema is the idempotent DDL applied by `blog migrate`.
//
//go:embed schema.sql
var Schema string
