// Package db provides embedded database migrations and the seed catalog.
package db

import "embed"

// Migrations holds the goose SQL migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// SeedCatalog is the catalog served when no catalog file is configured.
//
//go:embed seed/products.json
var SeedCatalog []byte
