package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCORSDeniesForeignOriginsByDefault(t *testing.T) {
	h := newCORS(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/convert", nil)
	preflight.Header.Set("Origin", "https://elsewhere.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected preflight without allow-origin, got %q", got)
	}
}

func TestNewCORSAllowsListedOrigin(t *testing.T) {
	h := newCORS([]string{"https://ops.example"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for origin, want := range map[string]string{
		"https://ops.example":       "https://ops.example",
		"https://elsewhere.example": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/conversions", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("origin %s: got allow-origin %q, want %q", origin, got, want)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
			t.Fatalf("origin %s: credentials must not be allowed, got %q", origin, got)
		}
	}
}

func TestAppDoesNotShareLatestScanCrossOrigin(t *testing.T) {
	downloads := t.TempDir()
	if err := os.WriteFile(filepath.Join(downloads, "Scan-2621196-2026.csv"), []byte("org_id,secret\nX,private\n"), 0o600); err != nil {
		t.Fatalf("write scan: %v", err)
	}

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "metrics:\n  enabled: false\nmodules:\n  orgjoin:\n    download_dir: " + downloads + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a := New(cfgPath)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
	})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("orgs", "orgs.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("$distinct_id,$name\nA1,Acme\n")); err != nil {
		t.Fatalf("write orgs: %v", err)
	}
	if err := mw.WriteField("use_latest", "true"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Origin", "https://elsewhere.example")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("expected no allow-credentials header, got %q", got)
	}
}
