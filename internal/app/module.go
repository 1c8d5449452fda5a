package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.orgjoin.enabled") {
		stop, err := orgjoin.New(orgjoin.Dependency{
			Config:       a.config,
			Router:       a.router,
			Goroutine:    a.goroutine,
			Context:      a.ctx,
			UUID:         a.uuid,
			ConversionID: a.snowflake,
			Metrics:      a.metrics,
		})
		if err != nil {
			slog.Error("failed to init module orgjoin", "error", err)
			os.Exit(1)
		}
		if stop != nil {
			a.addCloser("OrgJoin", stop)
		}
	}
}
