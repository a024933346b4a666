package cmd

import (
	"net/http"
	"sync"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	cliM        *metrics.M
)

// startMetrics exposes metrics when an address is configured. Metrics are discarded otherwise.
func startMetrics() {
	metricsOnce.Do(func() {
		if config == nil || config.Metrics.Addr == "" {
			cliM = metrics.Discard()
			return
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		cliM = metrics.New(registry)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(config.Metrics.Addr, mux); err != nil {
				infoLogger.Println("metrics server:", err)
			}
		}()
		infoLogger.Println("metrics exposed on", config.Metrics.Addr)
	})
}

func cliMetrics() *metrics.M {
	startMetrics()
	return cliM
}
