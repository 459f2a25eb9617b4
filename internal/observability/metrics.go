package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_http_requests_total",
			Help: "Total number of HTTP requests processed by the mafia service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mafia_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mafia_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mafia_sessions_active",
			Help: "Number of live sessions.",
		},
	)
	gamesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mafia_games_started_total",
			Help: "Total number of games started.",
		},
	)
	gamesFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_games_finished_total",
			Help: "Total number of games finished, by winning alignment.",
		},
		[]string{"winner"},
	)
	commandsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mafia_commands_rejected_total",
			Help: "Total number of participant commands rejected by validation.",
		},
		[]string{"command"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mafia_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		sessionsActive,
		gamesStartedTotal,
		gamesFinishedTotal,
		commandsRejectedTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncSessionsActive() {
	sessionsActive.Inc()
}

func DecSessionsActive() {
	sessionsActive.Dec()
}

func IncGameStarted() {
	gamesStartedTotal.Inc()
}

func IncGameFinished(winner string) {
	gamesFinishedTotal.WithLabelValues(winner).Inc()
}

func IncCommandRejected(command string) {
	commandsRejectedTotal.WithLabelValues(command).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
