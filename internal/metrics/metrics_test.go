package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, ResultOK, Outcome(nil))
	assert.Equal(t, ResultError, Outcome(errors.New("boom")))
}

// TestWriteTextfile tests the textfile export of a private registry
// TestWriteTextfile 测试私有注册表的文本文件导出
func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "gfcore_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	path := filepath.Join(t.TempDir(), "metrics", "gfcore.prom")
	require.NoError(t, WriteTextfile(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gfcore_test_total 3")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPush(t *testing.T) {
	assert.NoError(t, Push(prometheus.NewRegistry(), ""))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/job/gfcore") {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "gfcore_push_test", Help: "test"}))
	require.NoError(t, Push(reg, srv.URL))
	assert.Equal(t, int32(1), hits.Load())
}

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(HookCallsTotal.WithLabelValues("on::ready", ResultOK))
	HookCallsTotal.WithLabelValues("on::ready", ResultOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(HookCallsTotal.WithLabelValues("on::ready", ResultOK)))
}
