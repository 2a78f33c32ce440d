package repository

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fonsecaaso/tinylinks/go-server/internal/database"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, pgContainer)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(dsn))
	// a second run must be a no-op
	require.NoError(t, database.RunMigrations(dsn))

	pool, err := database.NewPostgresClient(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, redisContainer)
	require.NoError(t, err)

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := database.NewRedisClient(ctx, endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestPostgresRepositories(t *testing.T) {
	pool := setupPostgres(t)

	t.Run("links", func(t *testing.T) {
		exerciseLinkRepository(t, NewPostgresLinkRepository(pool))
	})
	t.Run("users", func(t *testing.T) {
		exerciseUserRepository(t, NewPostgresUserRepository(pool))
	})
}

func TestCachedLinkRepository(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	t.Run("shared behaviour", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())
		exerciseLinkRepository(t, NewCachedLinkRepository(NewMemoryLinkRepository(), client, time.Minute))
	})

	t.Run("reads are served from cache until invalidated", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())
		inner := NewMemoryLinkRepository()
		cached := NewCachedLinkRepository(inner, client, time.Minute)

		require.NoError(t, cached.Create(ctx, newLink("aaa111", "owner1", "http://one.example")))

		link, err := cached.FindByCode(ctx, "aaa111")
		require.NoError(t, err)
		assert.Equal(t, "http://one.example", link.TargetURL)

		// bypass the cache so the stale entry is observable
		require.NoError(t, inner.UpdateTarget(ctx, "aaa111", "http://behind-the-cache.example"))
		link, err = cached.FindByCode(ctx, "aaa111")
		require.NoError(t, err)
		assert.Equal(t, "http://one.example", link.TargetURL)

		require.NoError(t, cached.UpdateTarget(ctx, "aaa111", "http://fresh.example"))
		link, err = cached.FindByCode(ctx, "aaa111")
		require.NoError(t, err)
		assert.Equal(t, "http://fresh.example", link.TargetURL)

		require.NoError(t, cached.Delete(ctx, "aaa111"))
		_, err = cached.FindByCode(ctx, "aaa111")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}

func TestCachedLinkRepository_RedisDown(t *testing.T) {
	// nothing listens on this port; every cache call fails and falls through
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	exerciseLinkRepository(t, NewCachedLinkRepository(NewMemoryLinkRepository(), client, time.Minute))
}
