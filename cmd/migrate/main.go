package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/secrets"
	"github.com/emilydias-boop/mcf-insight-hub/internal/config"
	"github.com/emilydias-boop/mcf-insight-hub/internal/db"
)

const dialect = "postgres"

var (
	flags = flag.NewFlagSet("migrate", flag.ExitOnError)
	dir   = flags.String("dir", "", "directory with migration files (default: embedded migrations)")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		return
	}

	command := args[0]

	dbCfg, err := config.LoadDatabaseFromEnv()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	// Only file and env backed secrets are supported here
	if dbCfg.PasswordSecret != "" {
		reader := secrets.NewEnvSecretReader(os.Getenv("SECRETS_DIR"), zap.NewNop())
		secret, err := reader.GetSecret(context.Background(), dbCfg.PasswordSecret)
		if err != nil {
			log.Fatalf("resolve database password: %v", err)
		}
		dbCfg.Password = secret.Value
	}

	sqlDB, err := sql.Open("pgx", dbCfg.ConnectionString())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := goose.SetDialect(dialect); err != nil {
		log.Fatalf("failed to set dialect: %v", err)
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		goose.SetBaseFS(db.Migrations)
		migrationsDir = db.MigrationsDir
	}

	if err := goose.Run(command, sqlDB, migrationsDir, args[1:]...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}
}

func usage() {
	fmt.Print(`Usage: migrate [-dir DIR] COMMAND

Reads DB_HOST, DB_PORT, DB_USER, DB_PASSWORD (or DB_PASSWORD_SECRET),
DB_NAME and DB_SSL_MODE from the environment or a .env file.

Commands:
    up                   Migrate the DB to the most recent version available
    up-by-one            Migrate the DB up by 1
    up-to VERSION        Migrate the DB to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status for the current DB
    version              Print the current version of the database
    create NAME [sql|go] Creates new migration file with the current timestamp (requires -dir)

Examples:
    migrate up
    migrate status
    migrate -dir internal/db/migrations create add_payout_notes sql
`)
}
