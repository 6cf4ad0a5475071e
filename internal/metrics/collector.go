package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hook metrics
	HookCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfcore_hook_calls_total",
			Help: "Plugin hook invocations by trigger and outcome",
		},
		[]string{"trigger", "result"},
	)
	HookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gfcore_hook_duration_seconds",
			Help:    "Time spent inside plugin hooks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)
	HookSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfcore_hook_skipped_total",
			Help: "Observers skipped during a broadcast because they were unavailable",
		},
		[]string{"trigger"},
	)

	// Compiler metrics
	CompileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfcore_compile_total",
			Help: "Profile compilations by outcome",
		},
		[]string{"result"},
	)
	UnresolvedProvidersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gfcore_unresolved_rule_providers_total",
			Help: "Rule-set references that resolved to no provider",
		},
	)

	// Plugin store metrics
	PluginUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfcore_plugin_updates_total",
			Help: "Plugin source refreshes by outcome",
		},
		[]string{"result"},
	)
	PluginsCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gfcore_plugins_count",
			Help: "Installed plugins by state",
		},
		[]string{"state"},
	)
)

// Outcome labels shared by the counters above.
// 上述计数器共用的结果标签。
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Outcome maps an error to a result label.
// Outcome 将错误映射为结果标签。
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
