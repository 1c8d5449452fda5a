package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/inbound"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/locator"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkglog"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgmetrics"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

// Defaults applies to every key missing from the config file and environment.
var Defaults = map[string]any{
	"tz":                                  "UTC",
	"log.level":                           "info",
	"server.address.http":                 ":8080",
	"server.node_id":                      -1,
	"server.cors.allowed_origins":         []string{},
	"server.rate_limit.rps":               5,
	"server.rate_limit.burst":             10,
	"server.max_upload_bytes":             32 << 20,
	"modules.orgjoin.enabled":             true,
	"modules.orgjoin.scan_pattern":        locator.DefaultScanPattern,
	"modules.orgjoin.download_dir":        "~/Downloads",
	"modules.orgjoin.default_output_name": "LongScansReport",
	"modules.orgjoin.history_size":        256,
	"modules.orgjoin.events.buffer":       512,
	"modules.orgjoin.events.workers":      2,
	"modules.orgjoin.events.max_retries":  3,
	"modules.orgjoin.events.backoff":      "200ms",
	"metrics.enabled":                     true,
	"metrics.path":                        "/metrics",
}

// ConfigPath resolves the config file location.
func ConfigPath(override string) string {
	if override != "" {
		return override
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() {
	cfg, err := pkgconfig.NewViper(ConfigPath(a.configPath), Defaults)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	if err := pkglog.SetLevel(cfg.GetString("log.level")); err != nil {
		slog.Warn("invalid log level, keeping info", "log.level", cfg.GetString("log.level"), "error", err)
	}

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()

	snow, err := pkguid.NewSnowflake(a.config.GetInt("server.node_id"))
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = snow

	if a.config.GetBool("metrics.enabled") {
		metrics, err := pkgmetrics.NewPrometheus()
		if err != nil {
			slog.Error("failed to init metrics", "error", err)
			os.Exit(1)
		}
		a.metrics = metrics
	}
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	if a.metrics != nil {
		a.router.Handle(http.MethodGet, a.config.GetString("metrics.path"), a.metrics.Handler())
	}

	corsHandler := newCORS(a.config.GetStrings("server.cors.allowed_origins"))

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newCORS lets browsers read responses only from the listed origins. With none
// listed, cross-origin requests get no CORS headers and the browser keeps the
// response from the calling page.
func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", pkgrouter.HeaderCorrelationID, pkgrouter.HeaderRequestID},
		ExposedHeaders: []string{
			"Content-Disposition",
			inbound.HeaderConversionID,
			inbound.HeaderScanSource,
			pkgrouter.HeaderCorrelationID,
		},
	}
	if len(origins) == 0 {
		// rs/cors reads an empty list as "*".
		opts.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(opts)
}

func (a *App) initClosers() {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
