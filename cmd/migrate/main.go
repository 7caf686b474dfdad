// Command migrate manages the ledger engine's database schema. Migrations are
// embedded in the binary; -path points it at a directory on disk instead.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/erp/ledger-engine/internal/infrastructure/config"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"github.com/erp/ledger-engine/internal/infrastructure/migration"
	"github.com/erp/ledger-engine/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

// schemaCommand runs against an open migrator
type schemaCommand func(m *migration.Migrator, args []string, log *zap.Logger) error

var schemaCommands = map[string]schemaCommand{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must be positive, got %d", v)
		}
		return m.GoTo(uint(v))
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		status, err := m.Status()
		if err != nil {
			return err
		}
		if status.Version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", status.Version), zap.Bool("dirty", status.Dirty))
		return nil
	},
	"drop": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return errors.New("refusing to drop without -confirm")
		}
		return m.Drop()
	},
}

func main() {
	dir := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *dir != "" {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			log.Fatal("Invalid migrations path", zap.Error(err))
		}
		*dir = abs
	}

	command, rest := args[0], args[1:]
	log = log.With(zap.String("command", command))

	switch command {
	case "create":
		err = create(*dir, rest, log)
	case "list":
		err = list(*dir, log)
	default:
		run, ok := schemaCommands[command]
		if !ok {
			log.Error("Unknown command")
			printUsage()
			os.Exit(2)
		}
		err = withMigrator(*dir, log, func(m *migration.Migrator) error { return run(m, rest, log) })
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.Error(err))
	}
	log.Info("Done")
}

func withMigrator(dir string, log *zap.Logger, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	// Close releases db as well
	defer m.Close()

	return fn(m)
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return errors.New("usage: migrate create <name> [description]")
	}
	if dir == "" {
		dir = defaultMigrationsDir
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func list(dir string, log *zap.Logger) error {
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	names, err := migration.ListMigrations(fsys)
	if err != nil {
		return err
	}
	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  " + name)
	}
	return nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: migrate [-path dir] [-log-level level] <command> [args]

commands:
  up                    apply all pending migrations
  down                  roll back every migration
  step <n>              apply n migrations (negative rolls back)
  goto <version>        migrate up or down to version
  version               print the current version and dirty flag
  force <version>       set the version without running anything
  drop -confirm         drop every object in the schema
  create <name> [desc]  write a new up/down pair under -path (default ./migrations)
  list                  list migrations in the embedded set or -path

The database is configured through ERP_DATABASE_HOST, ERP_DATABASE_PORT,
ERP_DATABASE_USER, ERP_DATABASE_PASSWORD, ERP_DATABASE_DBNAME and
ERP_DATABASE_SSLMODE.
`)
}
