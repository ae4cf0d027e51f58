package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/oprema/internal/api"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/document"
	"github.com/erazemk/oprema/internal/forms"
	"github.com/erazemk/oprema/internal/ledger"
	"github.com/erazemk/oprema/internal/lock"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		fmt.Fprint(os.Stdout, config.Usage())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, config.Usage())
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		password, err := initDatabase(cfg.DB, cfg.Organization, cfg.User)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cfg.DB, cfg.Organization, cfg.User, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DB)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	backend, closeBackend, err := newLockBackend(cfg, database)
	if err != nil {
		return err
	}
	defer closeBackend()

	docs, err := document.NewFileStorage(cfg.Documents.Dir)
	if err != nil {
		return err
	}

	l := ledger.New(database, lock.NewManager(backend, cfg.Lock.Options()))
	wf := forms.New(database, l, document.HTMLGenerator{}, docs)

	apiRouter := api.NewRouter(api.Services{
		DB:        database,
		JWTSecret: jwtSecret,
		Ledger:    l,
		Forms:     wf,
		Documents: docs,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(apiRouter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "lock", cfg.Lock.Backend, "documents", cfg.Documents.Dir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newLockBackend builds the configured lease store. The returned function
// releases its resources.
func newLockBackend(cfg *config.Config, database *sql.DB) (lock.Backend, func(), error) {
	switch cfg.Lock.Backend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}

		slog.Info("using redis organization locks", "addr", cfg.Redis.Addr)
		return lock.NewRedisBackend(client, ""), func() { client.Close() }, nil
	default:
		return lock.NewSQLiteBackend(database), func() {}, nil
	}
}

// initDatabase creates a new database, ensures the schema, and creates the
// admin user of the organization.
func initDatabase(path, orgID, adminUsername string) (string, error) {
	database, err := db.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	fail := func(err error) (string, error) {
		database.Close()
		os.Remove(path)
		return "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(err)
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, orgID, adminUsername, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, orgID, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Printf("Admin account created in organization %q:\n", orgID)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
