package postgres

import "embed"

// Migrations holds the schema migrations applied at service start-up.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the SQL files.
const MigrationsDir = "migrations"
