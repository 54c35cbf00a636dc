package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
	"github.com/goliatone/go-accounts/persistence"
	"github.com/goliatone/go-accounts/rest"
	"github.com/goliatone/go-print"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := accounts.DefaultLogger()

	db, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	activity := accounts.ActivitySinkFunc(func(_ context.Context, e accounts.ActivityEvent) error {
		logger.Info("activity", "record", print.MaybePrettyJSON(activitymap.Normalize(e)))
		return nil
	})

	hasher := accounts.NewBcryptHasher(cfg.Accounts.BcryptCost)
	directory := accounts.NewDirectory(repo, hasher, cfg.Accounts).
		WithLogger(logger).
		WithActivitySink(activity)

	if cfg.SeedFile != "" {
		if _, err := accounts.SeedFromFile(ctx, directory, cfg.SeedFile); err != nil {
			return err
		}
	}

	tokens := accounts.NewTokenServiceFromConfig(cfg.Accounts, logger)
	auth := accounts.NewAuthenticator(directory, tokens, hasher).
		WithLogger(logger).
		WithActivitySink(activity)

	app := rest.NewApp(rest.NewController(directory, auth, logger))

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		errc <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
