// Package commands implements the configure CLI subcommands. Every command
// operates directly on the document store the server uses; run it against a
// stopped server or a different store.
package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/config"
	"github.com/callnudge/call-nudge/internal/state"
	"github.com/callnudge/call-nudge/internal/store"
)

// openController opens the configured store and loads state into a
// controller. The returned close function must be called when done.
func openController(ctx context.Context) (*state.Controller, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	docs, err := store.Open(cfg.StoreBackend, cfg.BoltPath, cfg.RedisURL, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() { _ = docs.Close() }

	controller := state.NewController(docs, zap.NewNop())
	if err := controller.Load(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	return controller, closeFn, nil
}
