package inbound

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/usecase"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
)

// Response headers of POST /convert.
const (
	HeaderConversionID = "X-Conversion-ID"
	// HeaderScanSource names the scan report file the output was built from.
	HeaderScanSource = "X-Scan-Source"
)

type uc interface {
	Convert(ctx context.Context, in usecase.ConvertInput) (usecase.ConvertResult, error)
	MarkDelivered(ctx context.Context, conversionID string) error
	Latest(ctx context.Context, dir string) (usecase.LatestResult, error)
	Conversion(ctx context.Context, conversionID string) (entity.ConversionMeta, error)
	Recent(ctx context.Context, limit int) ([]entity.ConversionMeta, error)
}

type Options struct {
	// MaxUploadBytes caps the whole multipart body of a conversion request.
	MaxUploadBytes int64
	// DefaultOutputName prefills the output name on the upload page.
	DefaultOutputName string
	// Limiter throttles conversion requests; nil disables throttling.
	Limiter *rate.Limiter
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, opts Options) {
	end := newHTTPEndpoint(r, uc, opts)

	r.Handle(http.MethodGet, "/", http.HandlerFunc(end.Index))
	r.Handle(http.MethodPost, "/convert", http.HandlerFunc(end.Convert), pkgrouter.MiddlewareRateLimit(opts.Limiter))

	r.GET("/scans/latest", end.LatestScan) // ?download_dir=
	r.GET("/conversions", end.Conversions) // ?limit=
	r.GET("/conversions/:id", end.Conversion)
}
