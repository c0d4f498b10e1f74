package receiver

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	"google.golang.org/protobuf/proto"

	"github.com/nixlim/mission-control/internal/alerts"
	"github.com/nixlim/mission-control/internal/metrics"
)

func startTestHTTP(t *testing.T, rep Reporter, opts ...Option) string {
	t.Helper()

	r := NewHTTPReceiver(testConfig(), rep, opts...)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(r.Stop)
	return fmt.Sprintf("http://%s", r.Addr().String())
}

func TestHTTPReceiver_Logs(t *testing.T) {
	t.Run("protobuf_content_type", func(t *testing.T) {
		rep := newFakeReporter()
		base := startTestHTTP(t, rep)

		req := &collogspb.ExportLogsServiceRequest{ResourceLogs: resourceLogs(
			&logspb.LogRecord{SeverityNumber: logspb.SeverityNumber_SEVERITY_NUMBER_WARN, Body: strBody("Fuel low")},
		)}
		body, err := proto.Marshal(req)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}

		resp, err := http.Post(base+"/v1/logs", "application/x-protobuf", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("HTTP POST failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/x-protobuf" {
			t.Errorf("response content type: got %q", ct)
		}

		got := rep.received()
		if len(got) != 1 || got[0].Severity != alerts.SeverityWarning || got[0].Message != "Fuel low" || got[0].Source != "otlp-http" {
			t.Errorf("unexpected events %+v", got)
		}
	})

	t.Run("json_content_type", func(t *testing.T) {
		rep := newFakeReporter()
		base := startTestHTTP(t, rep)

		jsonBody := map[string]any{
			"resourceLogs": []map[string]any{{
				"scopeLogs": []map[string]any{{
					"logRecords": []map[string]any{{
						"severityNumber": 17,
						"body":           map[string]any{"stringValue": "Pump failure"},
						"attributes": []map[string]any{{
							"key":   "mission.timeout_seconds",
							"value": map[string]any{"intValue": "120"},
						}},
					}},
				}},
			}},
		}
		body, _ := json.Marshal(jsonBody)

		resp, err := http.Post(base+"/v1/logs", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("HTTP POST failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("response content type: got %q", ct)
		}

		got := rep.received()
		if len(got) != 1 || got[0].Severity != alerts.SeverityCritical || got[0].TimeoutSeconds != 120 {
			t.Errorf("unexpected events %+v", got)
		}
	})

	t.Run("gzip_body", func(t *testing.T) {
		rep := newFakeReporter()
		base := startTestHTTP(t, rep)

		raw, _ := proto.Marshal(&collogspb.ExportLogsServiceRequest{ResourceLogs: resourceLogs(
			&logspb.LogRecord{Body: strBody("Compressed")},
		)})
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write(raw)
		_ = zw.Close()

		req, _ := http.NewRequest(http.MethodPost, base+"/v1/logs", &buf)
		req.Header.Set("Content-Type", "application/x-protobuf")
		req.Header.Set("Content-Encoding", "gzip")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("HTTP POST failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if len(rep.received()) != 1 {
			t.Error("expected gzip payload to be decoded")
		}
	})

	t.Run("invalid_payload_returns_400", func(t *testing.T) {
		base := startTestHTTP(t, newFakeReporter())

		resp, err := http.Post(base+"/v1/logs", "application/x-protobuf", strings.NewReader("not valid protobuf"))
		if err != nil {
			t.Fatalf("HTTP POST failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400 for invalid payload, got %d", resp.StatusCode)
		}
	})

	t.Run("invalid_json_returns_400", func(t *testing.T) {
		base := startTestHTTP(t, newFakeReporter())

		resp, err := http.Post(base+"/v1/logs", "application/json", strings.NewReader("{invalid json"))
		if err != nil {
			t.Fatalf("HTTP POST failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400 for invalid JSON, got %d", resp.StatusCode)
		}
	})

	t.Run("get_not_allowed", func(t *testing.T) {
		base := startTestHTTP(t, newFakeReporter())

		resp, err := http.Get(base + "/v1/logs")
		if err != nil {
			t.Fatalf("HTTP GET failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestHTTPReceiver_HealthAndMetrics(t *testing.T) {
	m := metrics.New()
	rep := newFakeReporter()
	base := startTestHTTP(t, rep, WithMetrics(m))

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.StatusCode)
	}

	body, _ := proto.Marshal(&collogspb.ExportLogsServiceRequest{ResourceLogs: resourceLogs(
		&logspb.LogRecord{Body: strBody("Counted")},
	)})
	resp, err = http.Post(base+"/v1/logs", "application/x-protobuf", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(text), `mission_intake_records_total{transport="http"} 1`) {
		t.Errorf("intake counter missing from /metrics output")
	}
}
