package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkglog"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgmetrics"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager
	metrics   *pkgmetrics.Prometheus

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in reverse order of registration
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New builds the application. An empty configPath falls back to
// /config/config.yaml, or ./config/config.yaml when LOCAL=true.
func New(configPath string) *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initClosers()
	app.initModules()

	return app
}
