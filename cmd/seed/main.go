// Package main seeds the database with the default admin and seller accounts.
// Running it again leaves existing accounts untouched.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// seedCost is the bcrypt cost for seeded accounts.
const seedCost = 10

func main() {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			log.Fatalf("Failed to load .env file: %v", err)
		}
	}

	dbURL := flag.String("database-url", os.Getenv("MARKET_DATABASE_URL"), "PostgreSQL connection URL")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply migrations before seeding")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("database URL is required (-database-url or MARKET_DATABASE_URL)")
	}

	seedLogger := logger.New(os.Stdout, "info")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, *dbURL, !*skipMigrations, seedLogger); err != nil {
		seedLogger.Error("Error seeding database", "error", err)
		cancel()
		os.Exit(1)
	}
	seedLogger.Info("Database seed completed successfully")
}

func run(ctx context.Context, dbURL string, migrate bool, log *slog.Logger) error {
	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: dbURL, MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if migrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	hasher := auth.NewBcryptVerifier(seedCost)
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		users := postgres.NewPostgresUserStore(tx)
		return seedAccounts(ctx, users, hasher, defaultAccounts, log)
	})
}

// account is a user the seeder ensures exists.
type account struct {
	Email    string
	Username string
	Password string
	IsAdmin  bool
}

var defaultAccounts = []account{
	{Email: "admin@example.com", Username: "admin", Password: "admin123", IsAdmin: true},
	{Email: "seller@example.com", Username: "seller_user", Password: "seller123"},
}

// seedAccounts creates each missing account. An existing account keeps its
// password; only a missing administrator record is restored.
func seedAccounts(ctx context.Context, users store.UserStore, hasher auth.PasswordVerifier, accounts []account, log *slog.Logger) error {
	for _, a := range accounts {
		user, err := users.GetByEmail(ctx, a.Email)
		switch {
		case err == nil:
			log.Info("Found existing user", "email", a.Email, "id", user.ID)
		case store.IsNotFoundError(err):
			user, err = createAccount(ctx, users, hasher, a)
			if err != nil {
				return err
			}
			log.Info("Created user", "email", a.Email, "id", user.ID)
		default:
			return fmt.Errorf("looking up %s: %w", a.Email, err)
		}

		if a.IsAdmin && !user.IsAdmin {
			if err := users.SetAdmin(ctx, user.ID, true); err != nil {
				return fmt.Errorf("granting admin to %s: %w", a.Email, err)
			}
			log.Info("Granted administrator privileges", "email", a.Email)
		}
	}
	return nil
}

func createAccount(ctx context.Context, users store.UserStore, hasher auth.PasswordVerifier, a account) (*domain.User, error) {
	hash, err := hasher.Hash(a.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password for %s: %w", a.Email, err)
	}

	user, err := domain.NewUser(a.Email, a.Username, hash)
	if err != nil {
		return nil, fmt.Errorf("building user %s: %w", a.Email, err)
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating %s: %w", a.Email, err)
	}
	return user, nil
}
