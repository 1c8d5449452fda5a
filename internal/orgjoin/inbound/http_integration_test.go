package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/event"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/locator"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/store"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/usecase"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

const (
	orgsCSV = "$distinct_id,$name\nA1,Acme\nB2,Globex\n"
	scanCSV = "org_id,host\nA1,web\nZ9,db\n"
)

type envelope[T any] struct {
	Message string         `json:"message"`
	Data    T              `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type server struct {
	router *pkgrouter.Router
	runner *pkgroutine.Manager
}

func newServer(t *testing.T, downloadDir string, opts Options) server {
	t.Helper()

	snow, err := pkguid.NewSnowflake(-1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	runner := pkgroutine.NewManager(10)
	bus := event.NewBus(10)
	t.Cleanup(bus.Close)

	uc := usecase.New(usecase.Dependency{
		Store:        store.NewInMemoryStore(10),
		Events:       bus,
		Runner:       runner,
		Finder:       locator.Latest,
		ConversionID: snow,
		EventID:      pkguid.NewUUID(),
		RootCtx:      context.Background(),
		Options:      usecase.Options{ScanPattern: locator.DefaultScanPattern, DownloadDir: downloadDir},
	})

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc, opts)

	return server{router: router, runner: runner}
}

type form struct {
	files  map[string]string
	fields map[string]string
}

func postConvert(t *testing.T, h http.Handler, f form) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range f.files {
		part, err := writer.CreateFormFile(name, name+".csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	for name, value := range f.fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConvertUploadAndDeliver(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{})

	rec := postConvert(t, srv.router, form{
		files:  map[string]string{"orgs": orgsCSV, "scan": scanCSV},
		fields: map[string]string{"output_name": " LongScansReport "},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "org_id,OrgName,host\nA1,Acme,web\nZ9,Unknown,db\n" {
		t.Fatalf("unexpected body: %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=LongScansReport.csv` {
		t.Fatalf("unexpected content disposition: %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type: %q", got)
	}

	id := rec.Header().Get(HeaderConversionID)
	if id == "" {
		t.Fatal("conversion id header is empty")
	}
	if got := rec.Header().Get(HeaderScanSource); got != "scan.csv" {
		t.Fatalf("unexpected scan source header: %q", got)
	}

	res := get(t, srv.router, "/conversions/"+id)
	if res.Code != http.StatusOK {
		t.Fatalf("unexpected conversion status: %d", res.Code)
	}

	var env envelope[ConversionResponse]
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode conversion: %v", err)
	}
	if env.Data.Status != entity.ConversionStatusDelivered {
		t.Fatalf("expected DELIVERED, got %s", env.Data.Status)
	}
	if env.Data.Rows != 2 || env.Data.Unresolved != 1 {
		t.Fatalf("unexpected stats: rows=%d unresolved=%d", env.Data.Rows, env.Data.Unresolved)
	}
	if env.Data.ScanSource != "scan.csv" {
		t.Fatalf("unexpected scan source: %q", env.Data.ScanSource)
	}

	list := get(t, srv.router, "/conversions?limit=5")
	var listEnv envelope[ConversionsResponse]
	if err := json.NewDecoder(list.Body).Decode(&listEnv); err != nil {
		t.Fatalf("decode conversions: %v", err)
	}
	if len(listEnv.Data.Conversions) != 1 || listEnv.Data.Conversions[0].ID != id {
		t.Fatalf("unexpected conversions: %+v", listEnv.Data.Conversions)
	}

	if err := srv.runner.Wait(); err != nil {
		t.Fatalf("runner wait: %v", err)
	}
}

func TestConvertXLSXAttachment(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{})

	rec := postConvert(t, srv.router, form{
		files:  map[string]string{"orgs": orgsCSV, "scan": scanCSV},
		fields: map[string]string{"format": "xlsx"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=converted_output.xlsx` {
		t.Fatalf("unexpected content disposition: %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatal("expected a zip archive")
	}
}

func TestConvertUsesLatestDownload(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Scan-2621196-2024-01-01.csv": "org_id\nB2\n",
		"Scan-2621196-2024-02-01.csv": scanCSV,
		"other.csv":                   "org_id\nA1\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	srv := newServer(t, "", Options{})

	latest := get(t, srv.router, "/scans/latest?download_dir="+url.QueryEscape(dir))
	var latestEnv envelope[LatestScanResponse]
	if err := json.NewDecoder(latest.Body).Decode(&latestEnv); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if !latestEnv.Data.Found || latestEnv.Data.Name != "Scan-2621196-2024-02-01.csv" {
		t.Fatalf("unexpected latest: %+v", latestEnv.Data)
	}

	rec := postConvert(t, srv.router, form{
		files:  map[string]string{"orgs": orgsCSV},
		fields: map[string]string{"use_latest": "true", "download_dir": dir},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "org_id,OrgName,host\nA1,Acme,web\nZ9,Unknown,db\n" {
		t.Fatalf("unexpected body: %q", got)
	}
	if got := rec.Header().Get(HeaderScanSource); got != "Scan-2621196-2024-02-01.csv" {
		t.Fatalf("unexpected scan source header: %q", got)
	}
}

func TestConvertLatestWithoutMatchAsksForBothFiles(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{})

	rec := postConvert(t, srv.router, form{
		files:  map[string]string{"orgs": orgsCSV},
		fields: map[string]string{"use_latest": "true"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var env envelope[any]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Message != usecase.MsgMissingInput {
		t.Fatalf("unexpected message: %q", env.Message)
	}
}

func TestConvertErrors(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{})

	rec := postConvert(t, srv.router, form{files: map[string]string{"orgs": orgsCSV}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var env envelope[any]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Message != usecase.MsgMissingInput {
		t.Fatalf("unexpected message: %q", env.Message)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatal("failed conversion must not be an attachment")
	}

	rec = postConvert(t, srv.router, form{files: map[string]string{"orgs": orgsCSV, "scan": "id\n1\n"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected schema status: %d", rec.Code)
	}

	rec = postConvert(t, srv.router, form{
		files:  map[string]string{"orgs": orgsCSV, "scan": scanCSV},
		fields: map[string]string{"format": "pdf"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected format status: %d", rec.Code)
	}

	rec = postConvert(t, srv.router, form{files: map[string]string{"orgs": orgsCSV, "scan": "org_id\n\"a\"b\n"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected parse status: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("org_id\n"))
	req.Header.Set("Content-Type", "text/csv")
	plain := httptest.NewRecorder()
	srv.router.ServeHTTP(plain, req)
	if plain.Code != http.StatusBadRequest {
		t.Fatalf("unexpected non-multipart status: %d", plain.Code)
	}

	if res := get(t, srv.router, "/conversions/does-not-exist"); res.Code != http.StatusNotFound {
		t.Fatalf("unexpected lookup status: %d", res.Code)
	}
}

func TestConvertUploadTooLarge(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{MaxUploadBytes: 64})

	rec := postConvert(t, srv.router, form{files: map[string]string{
		"orgs": orgsCSV + strings.Repeat("C3,Initech\n", 20),
		"scan": scanCSV,
	}})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestConvertRateLimited(t *testing.T) {
	srv := newServer(t, t.TempDir(), Options{Limiter: rate.NewLimiter(0, 1)})

	files := map[string]string{"orgs": orgsCSV, "scan": scanCSV}
	if rec := postConvert(t, srv.router, form{files: files}); rec.Code != http.StatusOK {
		t.Fatalf("unexpected first status: %d", rec.Code)
	}
	if rec := postConvert(t, srv.router, form{files: files}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected second status: %d", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Scan-2621196-x.csv"), []byte(scanCSV), 0o600); err != nil {
		t.Fatalf("write scan: %v", err)
	}

	srv := newServer(t, dir, Options{DefaultOutputName: "LongScansReport"})
	postConvert(t, srv.router, form{files: map[string]string{"orgs": orgsCSV, "scan": scanCSV}})

	rec := get(t, srv.router, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{`value="LongScansReport"`, "Scan-2621196-x.csv", "delivered"} {
		if !strings.Contains(body, want) {
			t.Fatalf("index page misses %q", want)
		}
	}
}
