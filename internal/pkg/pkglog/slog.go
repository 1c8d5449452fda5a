package pkglog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

//nolint:gochecknoglobals // shared by the default logger
var level = new(slog.LevelVar)

// InitLogging installs the JSON logger on stdout as the slog default. Its
// level starts at info and follows SetLevel.
func InitLogging() {
	slog.SetDefault(NewLogger(os.Stdout, level))
}

// SetLevel changes the level of the logger installed by InitLogging. It
// accepts slog level names such as "debug", "warn" or "error+2".
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(strings.TrimSpace(name)))
}

// NewLogger builds a JSON logger that renames time and level to "ts" and
// "severity", reports the caller as "file" relative to internal/, and tags
// every record with the service and correlation id.
func NewLogger(w io.Writer, lvl slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   true,
		ReplaceAttr: normalizeAttr,
	})

	return slog.New(&contextHandler{Handler: h})
}

func normalizeAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != NoCorrelationID {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", "orgjoin"))

	return h.Handler.Handle(ctx, r)
}
