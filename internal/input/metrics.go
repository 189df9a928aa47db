package input

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chk_discovery_lines_total",
			Help: "Total number of discovery lines received per input",
		},
		[]string{"input"},
	)

	parseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chk_discovery_parse_errors_total",
			Help: "Total number of invalid discovery lines per input",
		},
		[]string{"input"},
	)

	feedBufferUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chk_discovery_buffer_usage",
		Help: "Discovery records waiting to be stored",
	})
)
