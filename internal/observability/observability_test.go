package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("report published", "locality", "leones")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "report published", entry["msg"])
	assert.Equal(t, "leones", entry["locality"])
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "DEBUG", "text")

	logger.Debug("prompt compiled", "bytes", 42)

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "bytes=42")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}

func TestMetricsForTesting_IsolatedRegistries(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RunsTotal.WithLabelValues("success").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.RunsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RunsTotal.WithLabelValues("success")), 0)

	families, err := a.Gatherer().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "asesor_report_runs_total")
}

func TestPush(t *testing.T) {
	var gotPath, gotMethod string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMetricsForTesting()
	m.RunsTotal.WithLabelValues("success").Inc()
	m.LastSuccess.Set(1_700_000_000)

	require.NoError(t, m.Push(context.Background(), srv.URL, "leones"))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/metrics/job/asesor_generator/locality/leones", gotPath)
	assert.NotEmpty(t, body)
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetricsForTesting().Push(context.Background(), srv.URL, "leones")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
