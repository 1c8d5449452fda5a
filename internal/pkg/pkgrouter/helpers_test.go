package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeCID(t *testing.T) {
	if got := normalizeCID("  abc  "); got != "abc" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := normalizeCID("\n"); got != "" {
		t.Fatalf("expected empty for newline, got %q", got)
	}
	if got := normalizeCID("a b"); got != "" {
		t.Fatalf("expected empty for inner space, got %q", got)
	}
	if got := normalizeCID("caf\u00e9"); got != "" {
		t.Fatalf("expected empty for non-ascii, got %q", got)
	}
	long := strings.Repeat("a", 200)
	if got := normalizeCID(long); len(got) != 128 {
		t.Fatalf("expected length 128, got %d", len(got))
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "secret")
	headers.Set("X-Trace", "ok")

	masked := maskHeaders(headers)
	if got := masked.Get("Authorization"); got != "***" {
		t.Fatalf("expected masked authorization, got %q", got)
	}
	if got := masked.Get("X-Trace"); got != "ok" {
		t.Fatalf("expected X-Trace to stay, got %q", got)
	}
	if got := headers.Get("Authorization"); got != "secret" {
		t.Fatalf("expected original headers unchanged, got %q", got)
	}
}

func TestMaskData(t *testing.T) {
	input := map[string]any{
		"password": "secret",
		"profile": map[string]any{
			"access_token": "token",
		},
		"items": []any{
			map[string]any{
				"refresh_token": "rt",
			},
		},
	}

	masked := maskData(input).(map[string]any)
	if masked["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if masked["profile"].(map[string]any)["access_token"] != "***" {
		t.Fatalf("expected masked access_token")
	}
	items := masked["items"].([]any)
	if items[0].(map[string]any)["refresh_token"] != "***" {
		t.Fatalf("expected masked refresh_token")
	}
}

func TestParseAndMaskBodyJSON(t *testing.T) {
	body := []byte(`{"password":"secret","name":"bob"}`)
	parsed := parseAndMaskBody("application/json", body)

	m, ok := parsed.(map[string]any)
	if !ok {
		encoded, _ := json.Marshal(parsed)
		t.Fatalf("expected map, got %s", string(encoded))
	}
	if m["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if m["name"] != "bob" {
		t.Fatalf("expected name to remain")
	}
}

func TestParseAndMaskBodyForm(t *testing.T) {
	body := []byte("password=secret&name=bob")
	parsed := parseAndMaskBody("application/x-www-form-urlencoded", body)

	m, ok := parsed.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", parsed)
	}
	if m["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if m["name"] != "bob" {
		t.Fatalf("expected name to remain")
	}
}

func TestParseAndMaskBodyBinary(t *testing.T) {
	body := []byte{0xff, 0xfe, 0xfd}
	parsed := parseAndMaskBody("text/plain", body)
	if !reflect.DeepEqual(parsed, "<binary body omitted>") {
		t.Fatalf("expected binary body omission, got %v", parsed)
	}
}

func TestRequestBodyOmitsUploads(t *testing.T) {
	body := "--xyz\r\nContent-Disposition: form-data; name=\"orgs\"\r\n\r\n$distinct_id,$name\r\n--xyz--"
	req := httptest.NewRequest(http.MethodPost, "http://example.com/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	got, ok := requestBody(req).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", requestBody(req))
	}
	if got["omitted"] != "multipart/form-data" {
		t.Fatalf("expected multipart omission, got %v", got["omitted"])
	}
	if got["bytes"] != int64(len(body)) {
		t.Fatalf("expected byte count %d, got %v", len(body), got["bytes"])
	}

	rest, err := io.ReadAll(req.Body)
	if err != nil || string(rest) != body {
		t.Fatalf("upload body must stay untouched, got %q (%v)", rest, err)
	}
}

func TestRequestBodyKeepsJSONReadable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com", strings.NewReader(`{"password":"x","limit":5}`))
	req.Header.Set("Content-Type", "application/json")

	got, ok := requestBody(req).(map[string]any)
	if !ok || got["password"] != "***" {
		t.Fatalf("expected masked json, got %v", got)
	}

	rest, err := io.ReadAll(req.Body)
	if err != nil || string(rest) != `{"password":"x","limit":5}` {
		t.Fatalf("body must be readable again, got %q (%v)", rest, err)
	}
}

func TestResponseBodyOmitsNonJSON(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), body: &bytes.Buffer{}}
	rec.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = rec.Write([]byte("<html></html>"))

	got, ok := responseBody(rec).(map[string]any)
	if !ok || got["omitted"] != "text/html" || got["bytes"] != int64(13) {
		t.Fatalf("unexpected response body log: %v", responseBody(rec))
	}
	if rec.body.Len() != 0 {
		t.Fatal("html must not be captured")
	}

	att := &statusRecorder{ResponseWriter: httptest.NewRecorder(), body: &bytes.Buffer{}}
	att.Header().Set("Content-Type", "text/csv")
	att.Header().Set("Content-Disposition", `attachment; filename="r.csv"`)
	_, _ = att.Write([]byte("org_id,OrgName\n"))

	if got := responseBody(att).(map[string]any); got["omitted"] != "attachment" {
		t.Fatalf("expected attachment omission, got %v", got)
	}
}

func TestIsAttachment(t *testing.T) {
	h := http.Header{}
	if isAttachment(h) {
		t.Fatalf("expected empty header not to be attachment")
	}
	h.Set("Content-Disposition", `attachment; filename="report.csv"`)
	if !isAttachment(h) {
		t.Fatalf("expected attachment header to be detected")
	}
}
