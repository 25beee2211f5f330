//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/claimease/claimease/internal/domain/identity"
	"github.com/claimease/claimease/internal/platform/auth"
	"github.com/claimease/claimease/internal/platform/db"
)

// testEnv holds the shared containers for the integration suite.
type testEnv struct {
	Pool          *pgxpool.Pool
	Redis         *goredis.Client
	RedisURL      string
	MigrationsDir string
}

var env *testEnv

func TestMain(m *testing.M) {
	ctx := context.Background()

	e, cleanup, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up integration environment: %v\n", err)
		os.Exit(1)
	}

	env = e
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setup(ctx context.Context) (*testEnv, func(), error) {
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("claimease"),
		tcpostgres.WithUsername("claimease"),
		tcpostgres.WithPassword("claimease"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres: %w", err)
	}
	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("postgres connection string: %w", err)
	}

	pool, err := db.NewPool(ctx, connStr, db.PoolOptions{MaxConns: 10, ConnectTimeout: 30 * time.Second})
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, err
	}

	dir := findMigrationsDir()
	if _, err := db.NewMigrator(pool, dir).Up(ctx); err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	rc, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("start redis: %w", err)
	}
	redisURL, err := rc.ConnectionString(ctx)
	if err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		_ = rc.Terminate(ctx)
		return nil, nil, fmt.Errorf("redis connection string: %w", err)
	}
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		_ = rc.Terminate(ctx)
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	return &testEnv{Pool: pool, Redis: client, RedisURL: redisURL, MigrationsDir: dir}, func() {
		client.Close()
		pool.Close()
		_ = rc.Terminate(ctx)
		_ = pg.Terminate(ctx)
	}, nil
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

var testSigningKey = []byte("integration-signing-key-0123456789abcdef")

func newIdentityService(t *testing.T) *identity.Service {
	t.Helper()
	hasher, err := auth.NewHasher(4)
	require.NoError(t, err)
	tokens := auth.NewTokenIssuer(testSigningKey, time.Hour)
	return identity.NewService(identity.NewUserRepoPG(env.Pool), hasher, tokens, zerolog.Nop())
}

var userSeq int

// registerUser creates a user with a unique email and returns its id.
func registerUser(t *testing.T, svc *identity.Service) int64 {
	t.Helper()
	userSeq++
	resp, err := svc.Register(context.Background(), identity.RegisterRequest{
		FirstName:   "Test",
		LastName:    fmt.Sprintf("User%d", userSeq),
		Email:       fmt.Sprintf("user%d.%d@example.com", userSeq, time.Now().UnixNano()),
		Phone:       "9000000000",
		Password:    "correct-horse-battery",
		DateOfBirth: "1988-07-21",
	})
	require.NoError(t, err)
	return resp.UserID
}
