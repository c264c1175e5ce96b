package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"ProductInventory/pkg/kit"
)

const (
	databaseURLFlag    = "database-url"
	migrationsPathFlag = "migrations-path"
	downFlag           = "down"
)

type migrationLogger struct {
	log *zap.SugaredLogger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrationLogger) Verbose() bool { return true }

func main() {
	log := kit.NewLogger("migrator", "info")
	defer func() { _ = log.Sync() }()

	databaseURL := pflag.StringP(databaseURLFlag, "d", os.Getenv("PRODUCTS_DATABASE_URL"), "postgres URL")
	migrationsPath := pflag.StringP(migrationsPathFlag, "m", "migrations", "directory holding *.sql migrations")
	down := pflag.Bool(downFlag, false, "roll every migration back instead of applying")
	pflag.Parse()

	if *databaseURL == "" {
		log.Fatal("missing flag", zap.String("flag", "--"+databaseURLFlag))
	}

	if err := run(*databaseURL, *migrationsPath, *down, migrationLogger{log: log.Sugar()}); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func run(databaseURL, migrationsPath string, down bool, logger migrate.Logger) error {
	m, err := migrate.New("file://"+migrationsPath, pgx5URL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	m.Log = logger

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Printf("no migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Printf("migrations applied")
	return nil
}

// pgx5URL swaps a postgres:// scheme for the pgx5:// one golang-migrate
// registers its pgx v5 driver under.
func pgx5URL(u string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(u, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return u
}
