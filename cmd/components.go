// -- cmd/components.go --
package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/internal/artifacts"
	"github.com/formpilot/formpilot-cli/internal/autofill"
	"github.com/formpilot/formpilot-cli/internal/browser"
	"github.com/formpilot/formpilot-cli/internal/config"
	"github.com/formpilot/formpilot-cli/internal/extract"
	"github.com/formpilot/formpilot-cli/internal/observability"
)

// components holds the initialized services shared by the subcommands.
type components struct {
	Browser  *browser.Manager
	Store    *artifacts.Store
	Extract  *extract.Engine
	Autofill *autofill.Engine
	logger   *zap.Logger
}

// newComponents performs dependency injection for a command run.
func newComponents(cfg *config.Config) (*components, error) {
	logger := observability.GetLogger()

	store, err := artifacts.NewStore(cfg.Artifacts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	manager := browser.NewManager(cfg, logger)

	return &components{
		Browser:  manager,
		Store:    store,
		Extract:  extract.NewEngine(cfg, manager, store, logger),
		Autofill: autofill.NewEngine(cfg, manager, store, logger),
		logger:   logger,
	}, nil
}

// Shutdown waits for open browser sessions to terminate.
func (c *components) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.Browser.Shutdown(shutdownCtx); err != nil {
		c.logger.Warn("Error during browser shutdown", zap.Error(err))
	}
}
