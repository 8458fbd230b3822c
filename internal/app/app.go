// Package app wires configuration into the running service.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	tlcfg "tradelog/internal/config"
	"tradelog/internal/logger"
	ingesthttp "tradelog/internal/transport/http/ingest"
)

// App owns application-level orchestration: build dependencies from
// config, then run the ingestion server until shutdown.
type App struct {
	cfg    *tlcfg.Config
	server *ingesthttp.Server
}

// NewApp builds the application object without starting it.
func NewApp(cfg *tlcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.server == nil {
		return fmt.Errorf("ingest server not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infof("ingest server listening on %s", a.server.Addr())
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("ingest server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}
