// Package db holds the embedded SQL migrations applied by cmd/migrate.
package db

import "embed"

// Migrations contains the goose SQL files under migrations/
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations
const MigrationsDir = "migrations"
