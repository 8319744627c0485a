package testing

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kdblegal/kdbweb/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetPostgresPool connects to the postgres instance used by the repo tests
// and makes sure the schema exists. Default content is not seeded.
// POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER and
// POSTGRES_PASSWORD override the defaults.
func GetPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := envOr("POSTGRES_HOST", "localhost")
	t.Logf("using postgres host: %s", host)

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     host,
		DBPort:     envOr("POSTGRES_PORT", "5432"),
		DBName:     envOr("POSTGRES_DB", "kdbweb_test"),
		DBUser:     envOr("POSTGRES_USER", "postgres"),
		DBPassword: os.Getenv("POSTGRES_PASSWORD"),
	})
	require.NoError(t, err)
	t.Cleanup(dbPool.Close)

	schema := db.NewSchema(dbPool)
	schema.SeedDefaults = false
	require.NoError(t, schema.Ensure(ctx))

	return dbPool
}
