package testutil

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pkgpostgres "github.com/bibbank/creditrisk/pkg/postgres"
)

// PostgresContainer is a throwaway PostgreSQL with the service schema applied.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool

	migrations fs.FS
	dir        string
}

// NewPostgresContainer starts PostgreSQL, applies the migrations in dir of
// fsys through the same migrator riskd uses, and opens a pool. Teardown is
// registered with t.
func NewPostgresContainer(ctx context.Context, t *testing.T, fsys fs.FS, dir string) *PostgresContainer {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("creditrisk_test"),
		postgres.WithUsername("creditrisk"),
		postgres.WithPassword("creditrisk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	pc := &PostgresContainer{Container: pgContainer, migrations: fsys, dir: dir}
	t.Cleanup(func() { pc.terminate(t) })

	if pc.DSN, err = pgContainer.ConnectionString(ctx, "sslmode=disable"); err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	pc.MigrateUp(t)

	if pc.Pool, err = pgxpool.New(ctx, pc.DSN); err != nil {
		t.Fatalf("open pgxpool: %v", err)
	}
	if err := pkgpostgres.HealthCheck(ctx, pc.Pool); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	return pc
}

// MigrateUp applies pending migrations.
func (pc *PostgresContainer) MigrateUp(t *testing.T) {
	t.Helper()
	if err := pkgpostgres.RunMigrations(pc.DSN, pc.migrations, pc.dir); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
}

// MigrateDown rolls every migration back.
func (pc *PostgresContainer) MigrateDown(t *testing.T) {
	t.Helper()
	if err := pkgpostgres.RunMigrationsDown(pc.DSN, pc.migrations, pc.dir); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
}

// Truncate empties tables between subtests.
func (pc *PostgresContainer) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := pc.Pool.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE"); err != nil {
		t.Fatalf("truncate %v: %v", tables, err)
	}
}

func (pc *PostgresContainer) terminate(t *testing.T) {
	if pc.Pool != nil {
		pc.Pool.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("warning: terminate postgres container: %v", err)
	}
}
