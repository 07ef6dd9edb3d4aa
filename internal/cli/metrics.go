package cli

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveMetrics exposes the Prometheus registry on addr for the lifetime
// of the process.
func serveMetrics(log *slog.Logger, addr string) {
	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, metricsHandler()); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()
}
