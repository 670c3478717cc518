package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAPI(t *testing.T) (*httptest.Server, *Interpreter) {
	t.Helper()
	store := newTestStore(t)
	interp := &Interpreter{Store: store}
	cfg := Config{DashboardDays: 7, ReportOutputDir: t.TempDir()}
	srv := httptest.NewServer(NewRouter(cfg, store, interp))
	t.Cleanup(srv.Close)
	return srv, interp
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp, payload
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp, payload
}

func TestInterpretEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, payload := postJSON(t, srv.URL+"/api/interpret",
		`{"sample_id":"S001","run_id":"RUN1","operator_id":"OP1","nil":0.10,"tb1":1.50,"tb2":0.20,"mitogen":5.0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, payload)
	}
	if payload["result"] != ResultPositive {
		t.Fatalf("expected POS, got %v", payload["result"])
	}
	if !strings.Contains(payload["reason"].(string), "TB1 Antigen positive") {
		t.Fatalf("unexpected reason: %v", payload["reason"])
	}
	delta := payload["delta_check"].(map[string]any)
	if delta["Significant"] != false {
		t.Fatalf("first interpretation must not flag a delta: %v", delta)
	}
}

func TestInterpretEndpointFlagsDeltaOnChange(t *testing.T) {
	srv, _ := newTestAPI(t)

	postJSON(t, srv.URL+"/api/interpret",
		`{"sample_id":"S001","nil":0.10,"tb1":0.20,"tb2":0.30,"mitogen":2.0}`) // NEG
	resp, payload := postJSON(t, srv.URL+"/api/interpret",
		`{"sample_id":"S001","nil":0.10,"tb1":1.50,"tb2":0.20,"mitogen":5.0}`) // POS
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	delta := payload["delta_check"].(map[string]any)
	if delta["Significant"] != true {
		t.Fatalf("expected significant delta, got %v", delta)
	}
	if !strings.Contains(delta["Message"].(string), "'NEG'") {
		t.Fatalf("unexpected delta message: %v", delta["Message"])
	}
}

func TestInterpretEndpointValidation(t *testing.T) {
	srv, _ := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing sample id", `{"nil":0.1,"tb1":0.2,"tb2":0.3,"mitogen":2.0}`},
		{"missing numeric field", `{"sample_id":"S001","nil":0.1,"tb1":0.2,"tb2":0.3}`},
		{"non-numeric field", `{"sample_id":"S001","nil":"abc","tb1":0.2,"tb2":0.3,"mitogen":2.0}`},
		{"not json", `mitogen=2.0`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, payload := postJSON(t, srv.URL+"/api/interpret", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%v)", resp.StatusCode, payload)
			}
			if payload["error"] == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestInterpretEndpointReturnsWarnings(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, payload := postJSON(t, srv.URL+"/api/interpret",
		`{"sample_id":"S001","nil":2.5,"tb1":0.2,"tb2":0.3,"mitogen":20.0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	warnings, ok := payload["warnings"].([]any)
	if !ok || len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", payload["warnings"])
	}
}

func TestBatchEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)

	csvBody := "Sample ID,Nil,TB1,TB2,Mitogen\n" +
		"S001,0.10,1.50,0.20,5.0\n" +
		"S002,0.10,0.20,0.30,2.0\n" +
		",0.10,0.20,0.30,2.0\n" +
		"S004,0.10,0.20,oops,2.0\n" +
		"S005,9.50,10.0,11.0,15.0\n"
	resp, err := http.Post(srv.URL+"/api/batch?operator_id=OP1&run_id=RUN9", "text/csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("POST /api/batch failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if payload.TotalRows != 5 || payload.Skipped != 2 || payload.Processed != 3 {
		t.Fatalf("unexpected outcome: %+v", payload)
	}
}

func TestBatchEndpointHeaderError(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Post(srv.URL+"/api/batch", "text/csv",
		strings.NewReader("Sample ID,Nil,TB1\nS001,0.1,0.2\n"))
	if err != nil {
		t.Fatalf("POST /api/batch failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing headers, got %d", resp.StatusCode)
	}
}

func TestDashboardAndSummaryEndpoints(t *testing.T) {
	srv, _ := newTestAPI(t)

	for _, body := range []string{
		`{"sample_id":"S001","nil":0.10,"tb1":1.50,"tb2":0.20,"mitogen":5.0}`, // POS
		`{"sample_id":"S002","nil":0.10,"tb1":0.20,"tb2":0.30,"mitogen":2.0}`, // NEG
	} {
		if resp, payload := postJSON(t, srv.URL+"/api/interpret", body); resp.StatusCode != http.StatusOK {
			t.Fatalf("seed interpret failed: %v", payload)
		}
	}

	resp, dash := getJSON(t, srv.URL+"/api/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if dash["total"].(float64) != 2 || dash["positive"].(float64) != 1 {
		t.Fatalf("unexpected dashboard payload: %v", dash)
	}
	if dash["positive_rate"].(float64) != 50.0 {
		t.Fatalf("expected positive rate 50, got %v", dash["positive_rate"])
	}

	start := dash["from"].(string)
	end := dash["to"].(string)
	resp, summary := getJSON(t, srv.URL+"/api/summary?start="+start+"&end="+end)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, summary)
	}
	if summary["total"] != dash["total"] || summary["positive_rate"] != dash["positive_rate"] {
		t.Fatalf("summary %v and dashboard %v disagree for the same range", summary, dash)
	}
}

func TestSummaryEndpointBadDates(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, payload := getJSON(t, srv.URL+"/api/summary?start=01-02-2026&end=2026-01-05")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d (%v)", resp.StatusCode, payload)
	}
	if !strings.Contains(payload["error"].(string), "YYYY-MM-DD") {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestDashboardEndpointBadDays(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, _ := getJSON(t, srv.URL+"/api/dashboard?days=zero")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)

	postJSON(t, srv.URL+"/api/interpret", `{"sample_id":"S001","nil":0.10,"tb1":0.20,"tb2":0.30,"mitogen":2.0}`)
	postJSON(t, srv.URL+"/api/interpret", `{"sample_id":"S001","nil":0.10,"tb1":1.50,"tb2":0.20,"mitogen":5.0}`)

	resp, payload := getJSON(t, srv.URL+"/api/history/S001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	records, ok := payload["records"].([]any)
	if !ok || len(records) != 2 {
		t.Fatalf("expected 2 history records, got %v", payload["records"])
	}
	first := records[0].(map[string]any)
	if first["Result"] != ResultPositive {
		t.Fatalf("expected most recent record first, got %v", first["Result"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t)
	resp, payload := getJSON(t, srv.URL+"/api/health")
	if resp.StatusCode != http.StatusOK || payload["status"] != "ok" {
		t.Fatalf("unexpected health response: %d %v", resp.StatusCode, payload)
	}
}
