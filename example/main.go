package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	// Dev convenience so the example runs without any environment setup.
	if os.Getenv("ACCOUNTS_SIGNING_KEY") == "" {
		os.Setenv("ACCOUNTS_SIGNING_KEY", "example-signing-key-do-not-use-in-prod")
	}

	cfg, err := accounts.LoadConfig()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		panic(err)
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		panic(err)
	}

	dispatcher := accounts.NewDispatcher(newNotifier(cfg), cfg.PublicBaseURL)

	auther := accounts.NewAuthenticator(repo, cfg).
		WithDispatcher(dispatcher)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{
			"status": "ok",
		})
	})

	accounts.RegisterAuthRoutes(srv.Router(),
		accounts.WithControllerRepo(repo),
		accounts.WithControllerAuther(auther),
		accounts.WithControllerDispatcher(dispatcher),
	)

	accounts.RegisterProfileRoutes(srv.Router(),
		accounts.WithProfileRepo(repo),
		accounts.WithProfileAuther(auther),
		accounts.WithProfileConfig(cfg),
	)

	srv.Serve(cfg.ServerAddr)

	WaitExitSignal()

	dispatcher.Wait()
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := runMigrations(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// runMigrations applies the embedded up migrations in lexical order. The
// example targets a throwaway sqlite database so there is no version
// bookkeeping here.
func runMigrations(ctx context.Context, db *bun.DB) error {
	root := "data/sql/migrations"
	migrations := accounts.GetMigrationsFS()

	entries, err := fs.ReadDir(migrations, root)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := fs.ReadFile(migrations, root+"/"+name)
		if err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}

		log.Printf("applied migration %s", name)
	}

	return nil
}

// logNotifier prints email payloads instead of delivering them, which is
// all the example needs when no SMTP credentials are configured.
type logNotifier struct{}

func (logNotifier) SendVerificationEmail(ctx context.Context, account *accounts.Account, verificationURL string) error {
	log.Printf("verification email for %s: %s", account.Email, verificationURL)
	return nil
}

func (logNotifier) SendWelcomeEmail(ctx context.Context, account *accounts.Account) error {
	log.Printf("welcome email for %s", account.Email)
	return nil
}

func newNotifier(cfg *accounts.BaseConfig) accounts.Notifier {
	if cfg.SMTPHost == "" {
		return logNotifier{}
	}

	return accounts.NewSMTPNotifier(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		accounts.WithFromAddress(cfg.SMTPFrom),
		accounts.WithAppScheme(cfg.AppScheme),
	)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
