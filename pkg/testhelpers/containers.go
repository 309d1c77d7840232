package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage = "postgres:16-alpine"
	MySQLImage    = "mysql:8.0"

	testUser     = "kb"
	testPassword = "test_password"
	testDatabase = "shop"
)

// TestDB holds a shared source database container seeded with the fixture schema.
type TestDB struct {
	Container testcontainers.Container
	DB        *sql.DB
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
}

// Fixture tables seeded into every container. orders carries table and
// column comments (one with an embedded newline); users has none.
const (
	FixtureOrdersComment = "Order table"
	FixtureSalesSchema   = "sales"
)

var postgresFixture = []string{
	`CREATE TABLE public.orders (id integer PRIMARY KEY, note varchar(255), amount numeric(10,2))`,
	`COMMENT ON TABLE public.orders IS 'Order table'`,
	`COMMENT ON COLUMN public.orders.id IS 'PK'`,
	"COMMENT ON COLUMN public.orders.note IS 'free\ntext'",
	`CREATE TABLE public.users (id bigint)`,
	`CREATE SCHEMA sales`,
	`CREATE TABLE sales.invoices (id integer, total numeric(12,2))`,
	`COMMENT ON TABLE sales.invoices IS 'Invoices'`,
}

var mysqlFixture = []string{
	`CREATE TABLE orders (
		id INT PRIMARY KEY COMMENT 'PK',
		note VARCHAR(255) COMMENT 'free\ntext',
		amount DECIMAL(10,2)
	) COMMENT='Order table'`,
	`CREATE TABLE users (id BIGINT)`,
}

var (
	sharedPostgres     *TestDB
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error

	sharedMySQL     *TestDB
	sharedMySQLOnce sync.Once
	sharedMySQLErr  error
)

// GetPostgresDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetPostgresDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup postgres test database: %v", sharedPostgresErr)
	}

	return sharedPostgres
}

// GetMySQLDB returns a shared MySQL container for integration tests.
func GetMySQLDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMySQLOnce.Do(func() {
		sharedMySQL, sharedMySQLErr = setupMySQL()
	})

	if sharedMySQLErr != nil {
		t.Fatalf("Failed to setup mysql test database: %v", sharedMySQLErr)
	}

	return sharedMySQL
}

func setupPostgres() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		// The entrypoint restarts the server once after init
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	tdb, err := startContainer(ctx, req, "5432")
	if err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		testUser, testPassword, net.JoinHostPort(tdb.Host, fmt.Sprint(tdb.Port)), testDatabase)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	tdb.DB = db

	if err := seed(ctx, db, postgresFixture); err != nil {
		return nil, err
	}
	return tdb, nil
}

func setupMySQL() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MySQLImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": testPassword,
			"MYSQL_DATABASE":      testDatabase,
			"MYSQL_USER":          testUser,
			"MYSQL_PASSWORD":      testPassword,
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}

	tdb, err := startContainer(ctx, req, "3306")
	if err != nil {
		return nil, err
	}

	cfg := mysql.NewConfig()
	cfg.User = testUser
	cfg.Passwd = testPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(tdb.Host, fmt.Sprint(tdb.Port))
	cfg.DBName = testDatabase

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	tdb.DB = db

	if err := seed(ctx, db, mysqlFixture); err != nil {
		return nil, err
	}
	return tdb, nil
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port nat.Port) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TestDB{
		Container: container,
		Host:      host,
		Port:      mapped.Int(),
		User:      testUser,
		Password:  testPassword,
		Database:  testDatabase,
	}, nil
}

func seed(ctx context.Context, db *sql.DB, statements []string) error {
	// Verify connection with retry
	var pingErr error
	for i := 0; i < 20; i++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if pingErr != nil {
		return fmt.Errorf("database not reachable: %w", pingErr)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed %q: %w", stmt, err)
		}
	}
	return nil
}
