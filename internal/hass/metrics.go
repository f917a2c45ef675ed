package hass

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clambin/go-common/http/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRequestMetrics returns the metrics for calls to Home Assistant. Entity IDs and service names are dropped from
// the path label, to keep its cardinality low.
func NewRequestMetrics(namespace, subsystem string, labels prometheus.Labels) metrics.RequestMetrics {
	return metrics.NewRequestMetrics(metrics.Options{
		Namespace:   namespace,
		Subsystem:   subsystem,
		ConstLabels: labels,
		LabelValues: func(request *http.Request, code int) (string, string, string) {
			return request.Method, normalizePath(request.URL.Path), strconv.Itoa(code)
		},
	})
}

func normalizePath(path string) string {
	for _, prefix := range []string{"/api/states", "/api/services"} {
		if strings.HasPrefix(path, prefix) {
			return prefix
		}
	}
	if path == "" {
		path = "/"
	}
	return path
}
