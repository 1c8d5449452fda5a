package inbound

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/usecase"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
)

const (
	defaultMaxUploadBytes = 32 << 20
	maxFieldBytes         = 4 << 10
	recentOnIndex         = 10
)

//go:embed index.html.tmpl
var indexHTML string

var indexTemplate = template.Must(template.New("index").Funcs(sprig.FuncMap()).Parse(indexHTML))

type HTTPEndpoint struct {
	uc     uc
	router *pkgrouter.Router
	opts   Options
}

func newHTTPEndpoint(r *pkgrouter.Router, uc uc, opts Options) *HTTPEndpoint {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &HTTPEndpoint{uc: uc, router: r, opts: opts}
}

// Convert answers with the augmented report as an attachment. Failures are
// encoded as JSON like every other endpoint.
func (h *HTTPEndpoint) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	in, err := h.extractConvertInput(r)
	if err != nil {
		h.router.WriteError(ctx, w, err)
		return
	}

	result, err := h.uc.Convert(ctx, in)
	if err != nil {
		h.router.WriteError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.Header().Set(HeaderConversionID, result.ConversionID)
	if result.ScanSource != "" {
		w.Header().Set(HeaderScanSource, result.ScanSource)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(result.Content); err != nil {
		slog.WarnContext(ctx, "failed to deliver conversion", "conversion_id", result.ConversionID, "error", err)
		return
	}

	if err := h.uc.MarkDelivered(ctx, result.ConversionID); err != nil {
		slog.ErrorContext(ctx, "failed to mark conversion delivered", "conversion_id", result.ConversionID, "error", err)
		return
	}

	slog.InfoContext(ctx, result.Message, "conversion_id", result.ConversionID, "filename", result.Filename)
}

func (h *HTTPEndpoint) LatestScan(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Latest(ctx, pkgrouter.GetQuery(r, "download_dir"))
	if err != nil {
		return nil, err
	}

	return LatestScanResponse{
		Dir:     result.Dir,
		Pattern: result.Pattern,
		Found:   result.Found,
		Path:    result.Path,
		Name:    result.Name,
	}, nil
}

func (h *HTTPEndpoint) Conversion(ctx context.Context, r *http.Request) (any, error) {
	meta, err := h.uc.Conversion(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return toConversionResponse(meta), nil
}

func (h *HTTPEndpoint) Conversions(ctx context.Context, r *http.Request) (any, error) {
	limit, err := parseLimit(pkgrouter.GetQuery(r, "limit"))
	if err != nil {
		return nil, err
	}

	items, err := h.uc.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	conversions := make([]ConversionResponse, 0, len(items))
	for _, meta := range items {
		conversions = append(conversions, toConversionResponse(meta))
	}

	return ConversionsResponse{Conversions: conversions, limit: limit}, nil
}

// Index renders the upload page.
func (h *HTTPEndpoint) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := indexData{DefaultOutputName: h.opts.DefaultOutputName}

	if latest, err := h.uc.Latest(ctx, ""); err == nil {
		data.Latest = latest
	} else {
		slog.WarnContext(ctx, "failed to look up latest scan report", "error", err)
	}

	if recent, err := h.uc.Recent(ctx, recentOnIndex); err == nil {
		data.Recent = recent
	} else {
		slog.WarnContext(ctx, "failed to list recent conversions", "error", err)
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		h.router.WriteError(ctx, w, pkgerror.NewServer(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type indexData struct {
	DefaultOutputName string
	Latest            usecase.LatestResult
	Recent            []entity.ConversionMeta
}

func (h *HTTPEndpoint) extractConvertInput(r *http.Request) (usecase.ConvertInput, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return usecase.ConvertInput{}, pkgerror.NewInvalidFormat()
	}

	var (
		in        usecase.ConvertInput
		useLatest string
		format    string
	)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return usecase.ConvertInput{}, h.uploadErr(err)
		}

		switch part.FormName() {
		case "orgs":
			data, present, err := readFilePart(part)
			if err != nil {
				return usecase.ConvertInput{}, h.uploadErr(err)
			}
			if present {
				in.Orgs = bytes.NewReader(data)
			}
		case "scan":
			data, present, err := readFilePart(part)
			if err != nil {
				return usecase.ConvertInput{}, h.uploadErr(err)
			}
			if present {
				in.Scan = bytes.NewReader(data)
				in.ScanName = part.FileName()
			}
		case "use_latest":
			useLatest, err = readField(part)
		case "download_dir":
			in.DownloadDir, err = readField(part)
		case "output_name":
			in.OutputName, err = readField(part)
		case "format":
			format, err = readField(part)
		}
		_ = part.Close()

		if err != nil {
			return usecase.ConvertInput{}, h.uploadErr(err)
		}
	}

	in.UseLatest, err = parseUseLatest(useLatest)
	if err != nil {
		return usecase.ConvertInput{}, err
	}
	if in.UseLatest {
		in.Scan = nil
		in.ScanName = ""
	}

	in.Format, err = parseFormat(format)
	if err != nil {
		return usecase.ConvertInput{}, err
	}

	return in, nil
}

func (h *HTTPEndpoint) uploadErr(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return pkgerror.NewBusiness(fmt.Sprintf("upload exceeds %d bytes", h.opts.MaxUploadBytes), pkgerror.CodeTooLarge)
	}
	return pkgerror.NewInvalidFormat()
}

// readFilePart reads an uploaded file. An empty part without a file name is
// what browsers send for an untouched file input and counts as absent.
func readFilePart(part *multipart.Part) ([]byte, bool, error) {
	data, err := io.ReadAll(part)
	if err != nil {
		return nil, false, err
	}

	return data, part.FileName() != "" || len(data) > 0, nil
}

func readField(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func parseUseLatest(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	if strings.EqualFold(raw, "on") {
		return true, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerror.NewInvalidInput(errors.New("invalid use_latest"))
	}
	return value, nil
}

func parseFormat(raw string) (entity.Format, error) {
	switch strings.ToLower(raw) {
	case "", string(entity.FormatCSV):
		return entity.FormatCSV, nil
	case string(entity.FormatXLSX):
		return entity.FormatXLSX, nil
	default:
		return "", pkgerror.NewInvalidInput(errors.New("invalid format, use csv or xlsx"))
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 20, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, pkgerror.NewInvalidInput(errors.New("invalid limit"))
	}
	if value > 100 {
		value = 100
	}
	return value, nil
}
