package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/veranek/receiptwise/internal/config"
	"github.com/veranek/receiptwise/internal/extract"
	"github.com/veranek/receiptwise/internal/service"
	"github.com/veranek/receiptwise/internal/storage"
)

// initStore opens the database, runs migrations, and seeds the default
// categories for the current user when the registry is empty.
func initStore(ctx context.Context) (service.Store, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := store.EnsureDefaultCategories(ctx, currentUser()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed default categories: %w", err)
	}

	return store, nil
}

// currentUser resolves the user scope all operations run under.
func currentUser() string {
	if v := viper.GetString("user.id"); v != "" {
		return v
	}
	return "default"
}

// newExtractClient builds the extraction service client from config.
func newExtractClient() (*extract.Client, error) {
	cfg := extract.Config{
		Endpoint: viper.GetString("extract.endpoint"),
		APIKey:   viper.GetString("extract.api_key"),
	}
	if timeout := viper.GetDuration("extract.timeout"); timeout > 0 {
		cfg.Timeout = timeout
	} else {
		cfg.Timeout = 60 * time.Second
	}
	return extract.NewClient(cfg)
}
