package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dartlens/dartlens/internal/evidence"
	"github.com/dartlens/dartlens/internal/store"
)

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadRules returns the evidence rules, applying the configured YAML
// overlay when one is set.
func loadRules() (evidence.Rules, error) {
	if cfg.Evidence.RulesPath == "" {
		return evidence.DefaultRules(), nil
	}
	return evidence.LoadRules(cfg.Evidence.RulesPath)
}
