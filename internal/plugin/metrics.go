package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chk_plugin_files_loaded_total",
		Help: "Plugin files and compiled-in plugins loaded",
	})
	filesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chk_plugin_files_failed_total",
		Help: "Plugin files and compiled-in plugins skipped because of errors",
	})
	checksRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chk_checks_registered",
		Help: "Checks in the current snapshot",
	})
	providerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chk_provider_info",
		Help: "Functions announced by running function providers",
	}, []string{"provider_name"})
)
