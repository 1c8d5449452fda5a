package orgjoin

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/event"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/inbound"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/locator"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/store"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/usecase"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgmetrics"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

type Dependency struct {
	Config       pkgconfig.Config
	Goroutine    *pkgroutine.Manager
	Router       *pkgrouter.Router
	Context      context.Context
	UUID         pkguid.StringID
	ConversionID pkguid.NumberID
	Metrics      *pkgmetrics.Prometheus
}

// New wires the org join module and returns its closer.
func New(dep Dependency) (func(context.Context) error, error) {
	if dep.UUID == nil {
		dep.UUID = pkguid.NewUUID()
	}
	if dep.ConversionID == nil {
		snow, err := pkguid.NewSnowflake(-1)
		if err != nil {
			return nil, err
		}
		dep.ConversionID = snow
	}

	var (
		ucMetrics       usecase.Metrics
		reporterMetrics event.Metrics
	)
	if dep.Metrics != nil {
		ucMetrics = dep.Metrics
		reporterMetrics = dep.Metrics
	}

	storage := store.NewInMemoryStore(int(dep.Config.GetInt("modules.orgjoin.history_size")))
	bus := event.NewBus(int(dep.Config.GetInt("modules.orgjoin.events.buffer")))
	consumer := event.NewUnresolvedConsumer(bus, event.UnresolvedReporter{Metrics: reporterMetrics}, event.ConsumerConfig{
		Workers:     int(dep.Config.GetInt("modules.orgjoin.events.workers")),
		MaxRetries:  int(dep.Config.GetInt("modules.orgjoin.events.max_retries")),
		BaseBackoff: dep.Config.GetDuration("modules.orgjoin.events.backoff"),
	})
	consumer.Start()

	pattern := dep.Config.GetString("modules.orgjoin.scan_pattern")
	if pattern == "" {
		pattern = locator.DefaultScanPattern
	}
	downloadDir := dep.Config.GetString("modules.orgjoin.download_dir")
	if downloadDir == "" {
		downloadDir = locator.DefaultDownloadDir()
	}

	uc := usecase.New(usecase.Dependency{
		Store:        storage,
		Events:       bus,
		Runner:       dep.Goroutine,
		Metrics:      ucMetrics,
		Finder:       locator.Latest,
		ConversionID: dep.ConversionID,
		EventID:      dep.UUID,
		RootCtx:      dep.Context,
		Options: usecase.Options{
			ScanPattern: pattern,
			DownloadDir: downloadDir,
		},
	})

	var limiter *rate.Limiter
	if rps := dep.Config.GetFloat("server.rate_limit.rps"); rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(int(dep.Config.GetInt("server.rate_limit.burst")), 1))
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.Options{
		MaxUploadBytes:    dep.Config.GetInt("server.max_upload_bytes"),
		DefaultOutputName: dep.Config.GetString("modules.orgjoin.default_output_name"),
		Limiter:           limiter,
	})

	return consumer.Stop, nil
}
