package promexport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/startlat/pkg/aggregate"
	"github.com/ccollicutt/startlat/pkg/output"
)

func testReport() *output.Report {
	start := time.Unix(1700000000, 0)
	return output.NewReport(aggregate.Summary{
		"TS00 -> TS01": {Minimum: 100, Maximum: 300, Average: 200, Samples: 2},
		"TS01 -> TS02": {Minimum: 50, Maximum: 70, Average: 60, Samples: 1},
	}, "/tmp/urunc.zlog", []string{"a", "b"}, start, start.Add(10*time.Second))
}

func TestExporter_Observe(t *testing.T) {
	e := New()
	e.Observe(testReport())

	assert.Equal(t, float64(100), testutil.ToFloat64(e.interval.WithLabelValues("TS00 -> TS01", "minimum")))
	assert.Equal(t, float64(300), testutil.ToFloat64(e.interval.WithLabelValues("TS00 -> TS01", "maximum")))
	assert.Equal(t, float64(200), testutil.ToFloat64(e.interval.WithLabelValues("TS00 -> TS01", "average")))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.samples.WithLabelValues("TS01 -> TS02")))
	assert.Equal(t, float64(2), testutil.ToFloat64(e.runs))
	assert.Equal(t, float64(1700000010), testutil.ToFloat64(e.completed))

	assert.Equal(t, 6, testutil.CollectAndCount(e.interval))
}

func TestExporter_ObserveReplacesPreviousBatch(t *testing.T) {
	e := New()
	e.Observe(testReport())

	next := output.NewReport(aggregate.Summary{
		"TS05 -> TS06": {Minimum: 1, Maximum: 1, Average: 1, Samples: 1},
	}, "/tmp/urunc.zlog", []string{"c"}, time.Now(), time.Now())
	e.Observe(next)

	assert.Equal(t, 3, testutil.CollectAndCount(e.interval))
	assert.Equal(t, 1, testutil.CollectAndCount(e.samples))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.runs))
}

func TestExporter_Push(t *testing.T) {
	var method, path, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := New()
	e.Observe(testReport())
	require.NoError(t, e.Push(context.Background(), server.URL, "startlat"))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/startlat", path)
	assert.True(t, strings.Contains(body, "startlat_interval_nanoseconds"), "body should carry the interval metric")
}

func TestExporter_PushError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := New()
	e.Observe(testReport())
	err := e.Push(context.Background(), server.URL, "startlat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), server.URL)
}
