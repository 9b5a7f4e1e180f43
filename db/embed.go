// Package db provides the embedded database migrations and seed data.
package db

import "embed"

// Migrations holds the versioned up/down SQL files in golang-migrate layout.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// SeedProducts is the default catalogue loaded by seed-db.
//
//go:embed seed/products.json
var SeedProducts []byte
