package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/join"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

type Store interface {
	CreateConversion(ctx context.Context, meta entity.ConversionMeta) error
	UpdateMeta(ctx context.Context, conversionID string, fn func(meta *entity.ConversionMeta)) error
	GetConversion(ctx context.Context, conversionID string) (entity.ConversionMeta, error)
	ListRecent(ctx context.Context, limit int) ([]entity.ConversionMeta, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.UnresolvedEvent) error
}

// Runner starts background work without waiting for capacity.
type Runner interface {
	TryGo(ctx context.Context, name string, f func(ctx context.Context) error) bool
}

type Clock interface {
	Now() time.Time
}

type Metrics interface {
	ObserveConversion(status string, rows, unresolved int, took time.Duration)
}

// LatestFinder returns the newest file in dir whose name matches pattern.
type LatestFinder func(dir, pattern string) (path string, found bool, err error)

type Dependency struct {
	Store        Store
	Events       EventPublisher
	Runner       Runner
	Clock        Clock
	Metrics      Metrics
	Finder       LatestFinder
	ConversionID pkguid.NumberID
	EventID      pkguid.StringID
	RootCtx      context.Context
	Options      Options
}

type Usecase struct {
	store        Store
	events       EventPublisher
	runner       Runner
	clock        Clock
	metrics      Metrics
	finder       LatestFinder
	conversionID pkguid.NumberID
	eventID      pkguid.StringID
	rootCtx      context.Context
	opts         Options
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:        dep.Store,
		events:       dep.Events,
		runner:       dep.Runner,
		clock:        clock,
		metrics:      dep.Metrics,
		finder:       dep.Finder,
		conversionID: dep.ConversionID,
		eventID:      dep.EventID,
		rootCtx:      root,
		opts:         dep.Options,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Convert resolves org names for a scan report and returns the encoded result.
//
// The conversion record moves through the request lifecycle as it goes; on any
// failure it ends in FAILED and no output is returned. The record stays in
// SERIALIZED until MarkDelivered is called.
func (u *Usecase) Convert(ctx context.Context, in ConvertInput) (ConvertResult, error) {
	if u.store == nil || u.conversionID == nil {
		return ConvertResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	format := in.Format
	if format != entity.FormatXLSX {
		format = entity.FormatCSV
	}

	started := u.clock.Now()
	id := strconv.FormatInt(u.conversionID.Generate(), 10)
	filename := OutputFilename(in.OutputName, format)

	if err := u.store.CreateConversion(ctx, entity.ConversionMeta{
		ID:         id,
		Status:     entity.ConversionStatusAwaitingInputs,
		OutputName: filename,
		Format:     format,
		StartedAt:  started.UnixMilli(),
	}); err != nil {
		return ConvertResult{}, normalizeErr(err)
	}

	scan, source, closeScan, err := u.scanInput(ctx, in)
	if err != nil {
		return ConvertResult{}, u.fail(ctx, id, started, err)
	}
	defer closeScan()

	if err := u.store.UpdateMeta(ctx, id, func(meta *entity.ConversionMeta) {
		meta.ScanSource = source
	}); err != nil {
		return ConvertResult{}, normalizeErr(err)
	}

	var stageErr error
	res, err := join.Run(in.Orgs, scan, format, func(stage join.Stage) error {
		next := entity.ConversionStatusValidating
		if stage == join.StageResolving {
			next = entity.ConversionStatusResolving
		}
		stageErr = u.transition(ctx, id, next, nil)
		return stageErr
	})
	if stageErr != nil {
		return ConvertResult{}, normalizeErr(stageErr)
	}
	if err != nil {
		return ConvertResult{}, u.fail(ctx, id, started, err)
	}
	content, stats := res.Content, res.Stats

	if err := u.transition(ctx, id, entity.ConversionStatusSerialized, func(meta *entity.ConversionMeta) {
		meta.MappingEntries = int64(res.MappingEntries)
		meta.Rows = int64(stats.Rows)
		meta.Unresolved = int64(stats.Unresolved)
		meta.Bytes = int64(len(content))
	}); err != nil {
		return ConvertResult{}, normalizeErr(err)
	}

	slog.InfoContext(ctx, "conversion serialized",
		"conversion_id", id,
		"scan_source", source,
		"mapping_entries", res.MappingEntries,
		"rows", stats.Rows,
		"unresolved_rows", stats.Unresolved,
		"unresolved_ids", len(stats.UnresolvedIDs),
		"format", format,
	)

	u.reportUnresolved(id, stats)

	return ConvertResult{
		ConversionID: id,
		Filename:     filename,
		ContentType:  format.ContentType(),
		ScanSource:   source,
		Message:      fmt.Sprintf("%s conversion successful using: %s", strings.ToUpper(string(format)), source),
		Content:      content,
		Rows:         stats.Rows,
		Unresolved:   stats.Unresolved,
	}, nil
}

// MarkDelivered closes a serialized conversion once its output reached the caller.
func (u *Usecase) MarkDelivered(ctx context.Context, conversionID string) error {
	var meta entity.ConversionMeta
	err := u.transition(ctx, conversionID, entity.ConversionStatusDelivered, func(m *entity.ConversionMeta) {
		m.EndedAt = u.clock.Now().UnixMilli()
		meta = *m
	})
	if err != nil {
		return mapStoreErr(err)
	}

	u.observe(entity.ConversionStatusDelivered, meta)
	return nil
}

// Latest reports which scan report a "use latest" conversion would pick in dir.
func (u *Usecase) Latest(ctx context.Context, dir string) (LatestResult, error) {
	if u.finder == nil {
		return LatestResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	if strings.TrimSpace(dir) == "" {
		dir = u.opts.DownloadDir
	}

	path, found, err := u.finder(dir, u.opts.ScanPattern)
	if err != nil {
		return LatestResult{}, pkgerror.NewValidation(MsgNoLatestScan, pkgerror.CodeInvalidInput, err)
	}

	result := LatestResult{Dir: dir, Pattern: u.opts.ScanPattern, Found: found}
	if found {
		result.Path = path
		result.Name = filepath.Base(path)
	}

	return result, nil
}

// Conversion returns the record of one conversion.
func (u *Usecase) Conversion(ctx context.Context, conversionID string) (entity.ConversionMeta, error) {
	if conversionID == "" {
		return entity.ConversionMeta{}, pkgerror.NewInvalidInput(errors.New("conversion id is required"))
	}

	meta, err := u.store.GetConversion(ctx, conversionID)
	if err != nil {
		return entity.ConversionMeta{}, mapStoreErr(err)
	}

	return meta, nil
}

// Recent lists the newest conversion records.
func (u *Usecase) Recent(ctx context.Context, limit int) ([]entity.ConversionMeta, error) {
	if limit < 1 {
		return nil, pkgerror.NewInvalidInput(errors.New("invalid limit"))
	}

	items, err := u.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, normalizeErr(err)
	}

	return items, nil
}

// scanInput returns the scan report to convert. A "use latest" request that
// finds no file yields a nil reader so the conversion fails as missing input.
func (u *Usecase) scanInput(ctx context.Context, in ConvertInput) (io.Reader, string, func(), error) {
	noop := func() {}

	if !in.UseLatest {
		name := strings.TrimSpace(in.ScanName)
		if name != "" {
			name = filepath.Base(name)
		}
		return in.Scan, name, noop, nil
	}

	if u.finder == nil {
		return nil, "", noop, errors.New("latest scan lookup is not configured")
	}

	dir := in.DownloadDir
	if strings.TrimSpace(dir) == "" {
		dir = u.opts.DownloadDir
	}

	path, found, err := u.finder(dir, u.opts.ScanPattern)
	if err != nil || !found {
		slog.WarnContext(ctx, MsgNoLatestScan, "download_dir", dir, "pattern", u.opts.ScanPattern, "error", err)
		return nil, "", noop, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", noop, err
	}

	return f, filepath.Base(path), func() { _ = f.Close() }, nil
}

func (u *Usecase) transition(ctx context.Context, id string, next entity.ConversionStatus, fn func(meta *entity.ConversionMeta)) error {
	var illegal error
	err := u.store.UpdateMeta(ctx, id, func(meta *entity.ConversionMeta) {
		if !meta.Status.CanTransition(next) {
			illegal = pkgerror.NewBusiness(
				fmt.Sprintf("conversion is %s, cannot move to %s", meta.Status, next),
				pkgerror.CodeConflict,
			)
			return
		}
		meta.Status = next
		if fn != nil {
			fn(meta)
		}
	})
	if err != nil {
		return err
	}
	return illegal
}

func (u *Usecase) fail(ctx context.Context, id string, started time.Time, cause error) error {
	mapped := mapConvertErr(cause)

	var meta entity.ConversionMeta
	if err := u.transition(ctx, id, entity.ConversionStatusFailed, func(m *entity.ConversionMeta) {
		m.Err = cause.Error()
		m.EndedAt = u.clock.Now().UnixMilli()
		meta = *m
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record conversion failure", "conversion_id", id, "error", err)
	}

	slog.WarnContext(ctx, "conversion failed",
		"conversion_id", id,
		"status", entity.ConversionStatusFailed,
		"took_ms", u.clock.Now().Sub(started).Milliseconds(),
		"error", cause,
	)

	u.observe(entity.ConversionStatusFailed, meta)
	return mapped
}

func (u *Usecase) observe(status entity.ConversionStatus, meta entity.ConversionMeta) {
	if u.metrics == nil {
		return
	}

	took := time.Duration(0)
	if meta.EndedAt >= meta.StartedAt {
		took = time.Duration(meta.EndedAt-meta.StartedAt) * time.Millisecond
	}
	u.metrics.ObserveConversion(string(status), int(meta.Rows), int(meta.Unresolved), took)
}

func (u *Usecase) reportUnresolved(id string, stats join.Stats) {
	if u.events == nil || u.runner == nil || u.eventID == nil || len(stats.UnresolvedIDs) == 0 {
		return
	}

	event := entity.UnresolvedEvent{
		EventID:      u.eventID.Generate(),
		ConversionID: id,
		OrgIDs:       stats.UnresolvedIDs,
		Rows:         int64(stats.Unresolved),
	}

	started := u.runner.TryGo(u.rootCtx, "report-unresolved", func(ctx context.Context) error {
		if err := u.events.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish event", "conversion_id", id, "event_id", event.EventID, "error", err)
			return err
		}
		return nil
	})
	if !started {
		slog.Warn("background runner busy, unresolved org ids not reported",
			"conversion_id", id,
			"event_id", event.EventID,
			"unresolved_ids", len(event.OrgIDs),
		)
	}
}
