package observability

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const scrapeTimeout = 10 * time.Second

var (
	scrapeOnce    sync.Once
	scrapeHandler fiber.Handler
)

// MetricsHandler serves the TalentFlow collectors together with the Go runtime
// metrics in the Prometheus or OpenMetrics exposition format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	scrapeOnce.Do(func() {
		inner := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Timeout:           scrapeTimeout,
			ErrorHandling:     promhttp.ContinueOnError,
		})
		scrapeHandler = adaptor.HTTPHandler(promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer, inner))
	})
	return scrapeHandler
}
