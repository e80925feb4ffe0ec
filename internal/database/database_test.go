package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_api/internal/auth"
	"sales_api/internal/config"
	"sales_api/internal/sales"
)

func exerciseStores(t *testing.T, stores *Stores) {
	t.Helper()
	ctx := context.Background()

	sale := &sales.Sale{Amount: decimal.NewFromInt(5), RepresentativeID: 2}
	require.NoError(t, stores.Sales.Create(ctx, sale))
	got, err := stores.Sales.Read(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RepresentativeID)

	require.NoError(t, stores.Users.CreateRole(ctx, "admin"))
	exists, err := stores.Users.RoleExists(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpen_Memory(t *testing.T) {
	stores, err := Open(context.Background(), config.Database{Driver: config.DriverMemory}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer stores.Close()

	exerciseStores(t, stores)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.db")
	cfg := config.Database{Driver: config.DriverSQLite, ConnectionString: path}

	stores, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	exerciseStores(t, stores)
	require.NoError(t, stores.Close())

	// Reopening keeps the data and the migrated schema.
	stores, err = Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer stores.Close()

	all, err := stores.Sales.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// seedTwice runs admin seeding twice and checks a single admin with the admin role remains.
func seedTwice(t *testing.T, users auth.Store) {
	t.Helper()
	ctx := context.Background()
	tokens := auth.NewTokenManager("sales-api", "sales-clients", []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	svc := auth.NewService(users, tokens, zaptest.NewLogger(t))
	admin := auth.AdminAccount{Username: "admin", Email: "admin@domain.com", Password: "Adm1n-passw0rd"}

	require.NoError(t, svc.SeedAdmin(ctx, admin))
	first, err := users.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.SeedAdmin(ctx, admin))
	second, err := users.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{auth.RoleAdmin}, second.RoleNames())
}

func TestSeedAdmin_Twice(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		stores, err := Open(context.Background(), config.Database{Driver: config.DriverMemory}, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer stores.Close()
		seedTwice(t, stores.Users)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Database{Driver: config.DriverSQLite, ConnectionString: filepath.Join(t.TempDir(), "sales.db")}
		stores, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer stores.Close()
		seedTwice(t, stores.Users)
	})

	t.Run("postgres", func(t *testing.T) {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
		}
		db, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		defer db.Close()

		seedTwice(t, auth.NewPostgresStore(db))

		var roles, admins int
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM roles WHERE name = $1`, auth.RoleAdmin).Scan(&roles))
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM users WHERE lower(username) = 'admin'`).Scan(&admins))
		assert.Equal(t, 1, roles)
		assert.Equal(t, 1, admins)
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Database{Driver: "oracle"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestOpen_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	cfg := config.Database{Driver: config.DriverPostgres, ConnectionString: dsn}
	stores, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer stores.Close()

	exerciseStores(t, stores)

	// Migrations are idempotent.
	db, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	db.Close()
}
